/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package geo provides optional GeoIP enrichment for the admin /status
// endpoint. It never gates or participates in any protocol operation —
// a missing or unreadable database simply means lookups are unavailable.
package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Lookup resolves peer addresses to a coarse location using a MaxMind
// country database.
type Lookup struct {
	reader *geoip2.Reader
}

// Open loads the .mmdb file at path. Callers should treat a failure here
// as "GeoIP unavailable" rather than fatal: the admin surface still works
// without it.
func Open(path string) (*Lookup, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Lookup{reader: reader}, nil
}

// Close releases the underlying database file.
func (l *Lookup) Close() error {
	if l == nil || l.reader == nil {
		return nil
	}
	return l.reader.Close()
}

// Country returns the ISO country code for a peer address in "ip:port" or
// bare-IP form. An empty string means no match or an unparseable address.
func (l *Lookup) Country(peerAddr string) string {
	if l == nil || l.reader == nil {
		return ""
	}

	host := peerAddr
	if h, _, err := net.SplitHostPort(peerAddr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}

	record, err := l.reader.Country(ip)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}
