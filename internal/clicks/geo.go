package clicks

import (
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// Locator resolves the country name of an IP address. An empty result means unknown.
type Locator interface {
	Country(ip string) string
}

// GeoIPLocator looks countries up in a MaxMind country database.
// The reader is opened once and never mutated, so concurrent lookups need no locking.
type GeoIPLocator struct {
	reader *geoip2.Reader
}

// OpenLocator opens the database at path. A missing or corrupt database is
// logged and yields a NopLocator so that redirects keep working.
func OpenLocator(path string, logger *zap.Logger) Locator {
	if path == "" {
		logger.Info("geolocation disabled, no database configured")

		return NopLocator{}
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		logger.Warn("geolocation database unavailable, countries will not be resolved",
			zap.String("path", path),
			zap.Error(err),
		)

		return NopLocator{}
	}

	logger.Info("geolocation database loaded", zap.String("path", path))

	return &GeoIPLocator{reader: reader}
}

func (l *GeoIPLocator) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}

	record, err := l.reader.Country(parsed)
	if err != nil {
		return ""
	}

	return record.Country.Names["en"]
}

// Shutdown closes the database reader.
func (l *GeoIPLocator) Shutdown() error {
	return l.reader.Close()
}

// NopLocator never resolves a country.
type NopLocator struct{}

func (NopLocator) Country(_ string) string {
	return ""
}
