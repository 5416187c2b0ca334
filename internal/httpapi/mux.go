package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux with /healthz registered. broker may be nil.
func NewMux(db *sql.DB, broker ConnectionStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, broker)
	return mux
}
