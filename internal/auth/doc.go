// Package auth implements the authentication and authorisation core for
// RentGrid: signed bearer credentials, the account (principal) model, and
// per-request principal resolution against the live account store.
//
// The credential is stateless. Once issued it is validated by signature and
// expiry only. The account record is authoritative: role changes and
// deactivation take effect on the next request, not at credential expiry.
package auth
