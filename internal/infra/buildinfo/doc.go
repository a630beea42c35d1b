// Package buildinfo exposes build information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/contacts-go/internal/infra/buildinfo.Version=v1.0.0 \
//	    -X github.com/yndnr/contacts-go/internal/infra/buildinfo.Commit=abc123"
package buildinfo
