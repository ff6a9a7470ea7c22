// Package servicetest provides in-memory fakes of the domain collaborators
// for service tests.
package servicetest
