// Package apiclient is a thin JSON client for the storefront backend.
//
// Acceptance tests use it to check what the browser flow cannot show, such
// as whether a used activation key is really spent or what total the backend
// computes for a coupon. Responses use the backend's {"data": ...} envelope
// and errors are RFC 9457 problem details. Status codes map to sentinels:
//
//	401 -> ErrUnauthorized
//	404 -> ErrNotFound
//	400, 410 on key actions -> ErrKeyRejected
package apiclient
