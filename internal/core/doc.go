// Package core runs reshape requests independent of any transport.
//
// A [Service] is bound to one [reference.Store] and is used by the web
// handlers and the command line tool alike:
//
//	svc, err := core.NewService(store, core.Options{Metrics: m})
//	res, err := svc.Reshape(ctx, core.Request{
//	    Mode:     core.ModeConform,
//	    Filename: "orders.xlsx",
//	    Data:     data,
//	})
//	err = res.WriteCSV(w)
//
// # Flow
//
//  1. The file extension selects a decoder; unsupported types fail at once
//  2. A processing slot is taken from the [Limiter]
//  3. The upload is parsed into a table
//  4. Overwrite mode re-reads the reference template and fills two columns
//     by row position; conform mode reshapes the upload to the schema
//     captured at startup
//
// # Error Handling
//
// Failures are classified with [MapError], which yields a stable code and
// HTTP status. [ResponseText] renders the plain-text body sent to users.
package core
