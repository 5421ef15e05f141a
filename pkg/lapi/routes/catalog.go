package routes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/db/models"
	"github.com/quatton/libra/pkg/lapi/apierr"
	"github.com/quatton/libra/pkg/lapi/schemas"
	"github.com/quatton/libra/pkg/lapi/services/catalog"
	"github.com/quatton/libra/pkg/lapi/services/iam"
)

type modeler[M any] interface {
	Model() *M
}

type createInput[In any] struct {
	Body In
}

type updateInput[In any] struct {
	schemas.IDParam
	Body In
}

// resource describes one catalog table exposed at /api/{name}/.
type resource[M any, P db.ModelPtr[M], In modeler[M], Out any] struct {
	name   string
	plural string
	tag    Tag
	svc    func() *catalog.Service[M, P]
	out    func(*M) Out

	// customList is set when the table registers its own list operation.
	customList bool
}

func registerResource[M any, P db.ModelPtr[M], In modeler[M], Out any](api huma.API, iamSvc *iam.IAMService, r resource[M, P, In, Out]) {
	base := "/api/" + r.name + "/"
	item := "/api/" + r.name + "/{id}"
	tags := []string{r.tag.String()}

	if !r.customList {
		huma.Register(api, huma.Operation{
			OperationID: "list-" + r.plural,
			Method:      http.MethodGet,
			Path:        base,
			Summary:     "List " + r.plural,
			Tags:        tags,
		}, func(ctx context.Context, input *schemas.ListRequest) (*schemas.EnvelopeOutput[[]Out], error) {
			rows, err := r.svc().List(ctx, input.Page(), db.Filter{})
			if err != nil {
				return nil, apierr.Huma(err)
			}
			return schemas.Wrap(http.StatusOK, fmt.Sprintf("%d %s fetched", len(rows), r.plural), schemas.MapAll(rows, r.out)), nil
		})
	}

	huma.Register(api, huma.Operation{
		OperationID: "get-" + r.name,
		Method:      http.MethodGet,
		Path:        item,
		Summary:     "Get " + r.name,
		Tags:        tags,
	}, func(ctx context.Context, input *schemas.IDParam) (*schemas.EnvelopeOutput[Out], error) {
		m, err := r.svc().Get(ctx, input.ID)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, r.name+" fetched", r.out(m)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-" + r.name,
		Method:        http.MethodPost,
		Path:          base,
		Summary:       "Create " + r.name,
		Description:   "Librarian only.",
		Tags:          tags,
		Security:      BearerAuth,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *createInput[In]) (*schemas.EnvelopeOutput[Out], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		m, err := r.svc().Create(ctx, input.Body.Model())
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusCreated, r.name+" created", r.out(m)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-" + r.name,
		Method:      http.MethodPut,
		Path:        item,
		Summary:     "Update " + r.name,
		Description: "Replaces the record. Librarian only.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *updateInput[In]) (*schemas.EnvelopeOutput[Out], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		m, err := r.svc().Update(ctx, input.ID, input.Body.Model())
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, r.name+" updated", r.out(m)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-" + r.name,
		Method:      http.MethodDelete,
		Path:        item,
		Summary:     "Delete " + r.name,
		Description: "Librarian only.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.IDParam) (*schemas.EnvelopeOutput[*schemas.Empty], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		if err := r.svc().Delete(ctx, input.ID); err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Done(http.StatusOK, r.name+" deleted"), nil
	})
}

func RegisterCatalog(api huma.API, c *catalog.Catalog, iamSvc *iam.IAMService) {
	registerResource(api, iamSvc, resource[models.Author, *models.Author, schemas.AuthorInput, schemas.Author]{
		name: "author", plural: "authors", tag: TagAuthors,
		svc: func() *catalog.Service[models.Author, *models.Author] { return c.Authors },
		out: schemas.NewAuthor,
	})
	registerResource(api, iamSvc, resource[models.Book, *models.Book, schemas.BookInput, schemas.Book]{
		name: "book", plural: "books", tag: TagBooks,
		svc:        func() *catalog.Service[models.Book, *models.Book] { return c.Books },
		out:        schemas.NewBook,
		customList: true,
	})
	registerResource(api, iamSvc, resource[models.Copy, *models.Copy, schemas.CopyInput, schemas.Copy]{
		name: "copy", plural: "copies", tag: TagCopies,
		svc: func() *catalog.Service[models.Copy, *models.Copy] { return c.Copies },
		out: schemas.NewCopy,
	})
	registerResource(api, iamSvc, resource[models.Genre, *models.Genre, schemas.GenreInput, schemas.Named]{
		name: "genre", plural: "genres", tag: TagGenres,
		svc: func() *catalog.Service[models.Genre, *models.Genre] { return c.Genres },
		out: schemas.NewGenre,
	})
	registerResource(api, iamSvc, resource[models.Language, *models.Language, schemas.LanguageInput, schemas.Named]{
		name: "language", plural: "languages", tag: TagLanguages,
		svc: func() *catalog.Service[models.Language, *models.Language] { return c.Languages },
		out: schemas.NewLanguage,
	})
	registerResource(api, iamSvc, resource[models.Status, *models.Status, schemas.StatusInput, schemas.Named]{
		name: "status", plural: "statuses", tag: TagStatuses,
		svc: func() *catalog.Service[models.Status, *models.Status] { return c.Statuses },
		out: schemas.NewStatus,
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-books",
		Method:      http.MethodGet,
		Path:        "/api/book/",
		Summary:     "List books",
		Description: "Filters combine with AND; repeated values of one filter combine with OR.",
		Tags:        []string{TagBooks.String()},
	}, func(ctx context.Context, input *schemas.BookListRequest) (*schemas.EnvelopeOutput[[]schemas.Book], error) {
		filter := catalog.BookFilter(input.Author, input.Genre, input.Language, input.Title)
		rows, err := c.Books.List(ctx, input.Page(), filter)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, fmt.Sprintf("%d books fetched", len(rows)), schemas.MapAll(rows, schemas.NewBook)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-copies-of-book",
		Method:      http.MethodGet,
		Path:        "/api/copy/book/{book_id}",
		Summary:     "List copies of a book",
		Tags:        []string{TagCopies.String()},
	}, func(ctx context.Context, input *schemas.CopiesByBookRequest) (*schemas.EnvelopeOutput[[]schemas.Copy], error) {
		rows, err := c.CopiesOf(ctx, input.BookID, input.Page())
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, fmt.Sprintf("%d copies fetched", len(rows)), schemas.MapAll(rows, schemas.NewCopy)), nil
	})
}
