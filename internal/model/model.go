// Package model contains the domain types shared by the HTTP, service and storage layers.
// It holds no business logic.
package model
