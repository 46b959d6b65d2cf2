package state_test

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summer-earn/fleet/internal/state"
	"github.com/summer-earn/fleet/internal/types"
)

// recordingDriver implements just enough of database/sql/driver to capture
// the statements the state package issues. Every query returns a single
// row holding int64(1) so RETURNING scans succeed.
type recordingDriver struct {
	statements *[]string
}

func (d *recordingDriver) Open(string) (driver.Conn, error) {
	return &recordingConn{statements: d.statements}, nil
}

type recordingConn struct {
	statements *[]string
}

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return &recordingStmt{query: query, statements: c.statements}, nil
}

func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nopTx{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type recordingStmt struct {
	query      string
	statements *[]string
}

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return -1 }

func (s *recordingStmt) Exec([]driver.Value) (driver.Result, error) {
	*s.statements = append(*s.statements, s.query)
	return driver.RowsAffected(1), nil
}

func (s *recordingStmt) Query([]driver.Value) (driver.Rows, error) {
	*s.statements = append(*s.statements, s.query)
	return &singleIntRows{}, nil
}

type singleIntRows struct {
	done bool
}

func (*singleIntRows) Columns() []string { return []string{"id"} }
func (*singleIntRows) Close() error      { return nil }

func (r *singleIntRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	for i := range dest {
		dest[i] = int64(1)
	}
	return nil
}

var recorded []string

func init() {
	sql.Register("staterecorder", &recordingDriver{statements: &recorded})
}

// useRecordingDB swaps the package-level DB for a recording fake for the
// duration of one test and returns the captured statement log.
func useRecordingDB(t *testing.T) *[]string {
	t.Helper()
	db, err := sql.Open("staterecorder", "recorder")
	require.NoError(t, err)

	prev := state.DB
	state.DB = db
	recorded = nil
	t.Cleanup(func() {
		state.DB = prev
		db.Close()
	})
	return &recorded
}

func hasStatement(statements []string, fragment string) bool {
	for _, s := range statements {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

func sampleReceipt() types.FillReceipt {
	return types.FillReceipt{
		AuctionID: 7,
		Key: types.AuctionKey{
			Source:      "ark-a",
			Destination: "ark-b",
			Asset:       "usdc",
		},
		Bidder:    "bidder-1",
		Amount:    sdkmath.NewInt(400),
		Price:     sdkmath.LegacyMustNewDecFromStr("1.05"),
		Payment:   sdkmath.NewInt(420),
		Settled:   true,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPGSinkPersistsFillReceipts(t *testing.T) {
	statements := useRecordingDB(t)

	state.PGSink{}.Emit(types.FillEvent{Receipt: sampleReceipt()})

	assert.True(t, hasStatement(*statements, "INSERT INTO fill_receipts"))
	assert.True(t, hasStatement(*statements, "INSERT INTO fleet_events"))
}

func TestPGSinkPersistsParameterVersions(t *testing.T) {
	statements := useRecordingDB(t)

	state.PGSink{}.Emit(types.AuctionDefaultParametersUpdatedEvent{
		Version: 2,
		NewConfig: types.AuctionParameters{
			StartPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("1.05"),
			FloorPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("0.98"),
			Duration:             time.Hour,
			FloorDuration:        30 * time.Minute,
			DecayCurve:           types.DecayLinear,
		},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})

	// A governance update deactivates the old version and inserts the new
	// one, alongside the generic event mirror.
	assert.True(t, hasStatement(*statements, "UPDATE auction_parameters SET is_active = FALSE"))
	assert.True(t, hasStatement(*statements, "INSERT INTO auction_parameters"))
	assert.True(t, hasStatement(*statements, "INSERT INTO fleet_events"))
}

func TestPGSinkWithoutDatabase(t *testing.T) {
	prev := state.DB
	state.DB = nil
	t.Cleanup(func() { state.DB = prev })

	// Emission must stay a no-op, never a panic or an error.
	state.PGSink{}.Emit(types.FillEvent{Receipt: sampleReceipt()})
}
