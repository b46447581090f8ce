// Package presenter turns control errors into what a user should see.
//
// A Presenter follows one control. It keeps the last error list computed while
// the control was not pending, so messages do not flicker during an async run,
// and only exposes it once the control has been touched.
//
// MapErrorPayload folds server-side error payloads (dotted paths, bracket
// indices or JSON pointers) onto the control tree; anything that cannot be
// placed becomes a form-level message under validation.RootFormKey.
package presenter
