package handling

import (
	"commerce_server/lib"
	"net/http"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HandleError writes err as a JSON error envelope. Internal failures are logged.
func HandleError(err error, logger *gecho.Logger, w http.ResponseWriter) {
	lib.WriteError(w, logger, err)
}

// PathID parses the {id} URL parameter. A malformed id cannot match any row,
// so it is reported as notFound.
func PathID(r *http.Request, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
