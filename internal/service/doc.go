// Package service contains the application use cases: submitting and
// reading alt-text jobs, applying reviewed proposals to the CMS, managing
// operator accounts and application settings.
//
// Services receive their stores, collaborators and logger through their
// constructors. They return sentinel errors for expected conditions and wrap
// everything else in ServiceError; the API layer maps both to status codes.
package service
