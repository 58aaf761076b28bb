package keel

import "go.uber.org/dig"

// In marks a parameter object. When a function takes a single struct that
// embeds In, every exported field of that struct is resolved as if it were
// a parameter named after the field.
//
// Field tags refine resolution:
//   - `inject:"id"` resolves the field from id
//   - `tagged:"name"` resolves the field from a tagged collection; add
//     `lazy:"true"`, `keyed:"true"` or `exclude:"a,b"` to configure it
//   - `optional:"true"` leaves the field at its zero value when nothing resolves it
//   - `default:"literal"` sets a fallback parsed by the field's kind
//   - `inject:"-"` skips the field
//
// Example:
//
//	type ServerParams struct {
//	    keel.In
//
//	    Logger   *zap.Logger
//	    Primary  *sql.DB         `inject:"db.primary"`
//	    Handlers []http.Handler  `tagged:"http.handlers"`
//	    Timeout  time.Duration   `default:"5s"`
//	}
//
//	func NewServer(p ServerParams) *Server { ... }
//
// In must be embedded anonymously.
type In = dig.In
