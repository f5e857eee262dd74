package duckdb

import "fmt"

// CreateBarsTable creates the daily bars fact table.
// Bars are unique per (instrument, date); collection runs upsert, so
// replayed downloads refresh rather than duplicate history.
const CreateBarsTable = `
CREATE TABLE IF NOT EXISTS bars (
    instrument VARCHAR NOT NULL,
    date DATE NOT NULL,
    open DOUBLE,
    high DOUBLE,
    low DOUBLE,
    close DOUBLE,
    adj_close DOUBLE,
    volume DOUBLE,
    PRIMARY KEY (instrument, date)
);
`

// InitializeSchema creates all required tables
func InitializeSchema(c *Client) error {
	if err := c.Exec(CreateBarsTable); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
