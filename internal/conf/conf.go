package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of the configuration tree loaded from configs/.
type Bootstrap struct {
	Server    *Server    `json:"server"`
	Data      *Data      `json:"data"`
	Shortener *Shortener `json:"shortener"`
}

// Server holds the transport listeners.
type Server struct {
	HTTP *Listener `json:"http"`
	GRPC *Listener `json:"grpc"`
}

// Listener configures a single kratos transport server.
type Listener struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

// Data holds the storage backends.
type Data struct {
	Database *Database `json:"database"`
	Redis    *Redis    `json:"redis"`
}

// Database selects the SQL driver ("postgres" or "sqlite3") and its DSN.
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

// Redis configures the shared cache and rate-limit substrate.
// An empty Addr selects the in-process substrate.
type Redis struct {
	Addr         string   `json:"addr"`
	Password     string   `json:"password"`
	DB           int      `json:"db"`
	DialTimeout  Duration `json:"dial_timeout"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

// Shortener holds the business settings.
type Shortener struct {
	BaseURL       string   `json:"base_url"`
	CodeLength    int      `json:"code_length"`
	CacheTTL      Duration `json:"cache_ttl"`
	SweepInterval Duration `json:"sweep_interval"`
	Limits        *Limits  `json:"limits"`
}

// Limits groups the per-route-class fixed window limits.
type Limits struct {
	Create   *Limit `json:"create"`
	Delete   *Limit `json:"delete"`
	Redirect *Limit `json:"redirect"`
}

// Limit is a fixed window admission budget.
type Limit struct {
	Requests int64    `json:"requests"`
	Window   Duration `json:"window"`
}

// Duration is a time.Duration that reads Go duration strings ("1s", "24h")
// as well as plain integer seconds.
type Duration struct {
	time.Duration
}

// AsDuration returns the wrapped value.
func (d Duration) AsDuration() time.Duration {
	return d.Duration
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value) * time.Second
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
