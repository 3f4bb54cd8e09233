package config

type Config struct {
	Ledger   LedgerConfig
	Import   ImportConfig
	BankSync BankSyncConfig
}

type Secrets struct {
	BankFeed BankFeedSecrets
	Influx   InfluxSecrets
	SQL      SqlSecrets

	// Alternative to the Sql struct, used for hosted deployments where a
	// single database url env variable is provided.
	DatabaseURL string `env:"DATABASE_URL"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Ledger
///////////////////////////////////////////////////////////////////////////////////////

type LedgerConfig struct {
	SQL struct {
		LedgerDatabase string
	}
}

///////////////////////////////////////////////////////////////////////////////////////
// Import
///////////////////////////////////////////////////////////////////////////////////////

type ImportConfig struct {
	// Date to import transactions after, format 2006-01-02. Empty means no cutoff.
	ImportAfterDate string
	// Name the peer-payment vendor uses for the ledger owner. Rows are signed
	// relative to this identity.
	PeerPaymentOwner string
	// Number of parsed rows echoed back in the review artifact.
	SampleRows int
	// Influx database import/sync run stats are written to.
	StatsDatabase string
}

///////////////////////////////////////////////////////////////////////////////////////
// BankSync
///////////////////////////////////////////////////////////////////////////////////////

type BankSyncConfig struct {
	UpdateFrequency string
	FeedURL         string
	// Days of history fetched when no explicit range is passed to the runner.
	LookbackDays int
}

type BankFeedSecrets struct {
	AccessToken string `json:"bankFeedAccessToken" env:"BANK_FEED_ACCESS_TOKEN"`
}

type InfluxSecrets struct {
	InfluxEndpoint string `env:"INFLUX_ENDPOINT"`
	InfluxUsername string `env:"INFLUX_USERNAME"`
	InfluxPassword string `env:"INFLUX_PASSWORD"`
}

type SqlSecrets struct {
	SqlHost     string `env:"SQL_HOST"`
	SqlUsername string `env:"SQL_USERNAME"`
	SqlPassword string `env:"SQL_PASSWORD"`
}
