// Package rolecheck decides whether a caller may invoke an operation.
//
// A RoleRequirement is attached to a route when it is registered. On every
// call the Evaluator runs the Basic-auth check for administrators and the
// client certificate check for consumers, then OR-combines the results. An
// unknown Basic login aborts evaluation before the certificate is looked at.
// A requirement with no flags set denies every call.
package rolecheck
