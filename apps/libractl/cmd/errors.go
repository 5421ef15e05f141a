package cmd

import (
	"fmt"
	"log"

	"github.com/quatton/libra/pkg/lsdk/lerr"
)

// hint turns an SDK error into user-facing guidance.
func hint(err error) string {
	switch {
	case lerr.IsCode(err, lerr.CodeSessionExpired):
		return fmt.Sprintf("session expired: run 'libractl auth login' (%v)", err)
	case lerr.IsCode(err, lerr.CodeUnauthorized):
		return fmt.Sprintf("authentication required: run 'libractl auth login' (%v)", err)
	case lerr.StatusOf(err) == 403:
		return fmt.Sprintf("permission denied: this needs a librarian account (%v)", err)
	case lerr.IsCode(err, lerr.CodeNetwork):
		return fmt.Sprintf("cannot reach the server: check --base-url (%v)", err)
	}
	return err.Error()
}

// exitIfSdkError inspects errors returned from the SDK and emits user-friendly
// guidance before exiting.
func exitIfSdkError(err error) {
	if err == nil {
		return
	}
	log.Fatalf("%s", hint(err))
}
