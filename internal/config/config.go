package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs     int
	LoanCacheTTLSecs int

	// Settlement parameters.
	GracePeriodSecs int64
	ProtocolAccount string
	VaultAccount    string

	// Fee schedule rates and caps, basis points.
	LenderInterestFeeBps    int64
	LenderInterestFeeCapBps int64
	LenderPrincipalFeeBps   int64
	LenderPrincipalFeeCap   int64
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt64(k string, d int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "loanledger"),
		MySQLUser: getenv("MYSQL_USER", "loanledger"),
		MySQLPass: getenv("MYSQL_PASS", "loanledger"),

		RedisAddr:        getenv("REDIS_ADDR", "redis:6379"),
		IdempTTLSecs:     300,
		LoanCacheTTLSecs: 30,

		// 10 days, the protocol's claim window after maturity.
		GracePeriodSecs: getenvInt64("GRACE_PERIOD_SECONDS", 10*24*3600),
		ProtocolAccount: getenv("PROTOCOL_ACCOUNT", "protocol"),
		VaultAccount:    getenv("VAULT_ACCOUNT", "vault"),

		LenderInterestFeeBps:    getenvInt64("LENDER_INTEREST_FEE_BPS", 2_000),
		LenderInterestFeeCapBps: getenvInt64("LENDER_INTEREST_FEE_CAP_BPS", 5_000),
		LenderPrincipalFeeBps:   getenvInt64("LENDER_PRINCIPAL_FEE_BPS", 200),
		LenderPrincipalFeeCap:   getenvInt64("LENDER_PRINCIPAL_FEE_CAP_BPS", 1_000),
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	if v := os.Getenv("LOAN_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LoanCacheTTLSecs = n
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.GracePeriodSecs < 0 {
		return errors.New("GRACE_PERIOD_SECONDS must not be negative")
	}
	if c.ProtocolAccount == "" || c.VaultAccount == "" || c.ProtocolAccount == c.VaultAccount {
		return errors.New("PROTOCOL_ACCOUNT and VAULT_ACCOUNT must be set and distinct")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
