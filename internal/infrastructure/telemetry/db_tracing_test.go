package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedMarca struct {
	ID     uint   `gorm:"primaryKey"`
	Nombre string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedMarca{}))
	return db
}

func statementSpan(t *testing.T, db *gorm.DB, run func(tx *gorm.DB) *gorm.DB) sdktrace.ReadOnlySpan {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "statement")
	run(db.WithContext(ctx))
	span.End()

	ended := sr.Ended()
	require.NotEmpty(t, ended)
	return ended[len(ended)-1]
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DefaultDBTracingConfig(), nil))
	assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
}

func TestRegisterDBTracing_Enabled(t *testing.T) {
	db := setupTestDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"

	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
	assert.NotNil(t, db.Callback().Query().Get("otel_timing:before_query"))
	assert.NotNil(t, db.Callback().Create().Get("otel_timing:after_create"))

	// a second registration collides on the callback names
	assert.Error(t, RegisterDBTracing(db, cfg, zap.NewNop()))
}

func TestAnnotateStatement_TableAndRows(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:start", markQueryStart))
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:annotate", func(tx *gorm.DB) {
		annotateStatement(tx, time.Hour)
	}))

	span := statementSpan(t, db, func(tx *gorm.DB) *gorm.DB {
		return tx.Create(&tracedMarca{Nombre: "loreal"})
	})

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(1), attrs["db.rows_affected"].AsInt64())
	assert.Equal(t, "traced_marcas", attrs["db.sql.table"].AsString())
	_, slow := attrs["db.slow_query"]
	assert.False(t, slow)
}

func TestAnnotateStatement_SlowQueryAndError(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Callback().Raw().Before("gorm:raw").Register("test:start", markQueryStart))
	require.NoError(t, db.Callback().Raw().After("gorm:raw").Register("test:annotate", func(tx *gorm.DB) {
		annotateStatement(tx, 0)
	}))

	span := statementSpan(t, db, func(tx *gorm.DB) *gorm.DB {
		return tx.Exec("SELECT * FROM missing_table")
	})

	assert.Equal(t, codes.Error, span.Status().Code)
	var names []string
	for _, e := range span.Events() {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "slow_query_warning")
}

func TestAnnotateStatement_NonRecording(t *testing.T) {
	db := setupTestDB(t)
	tx := db.Session(&gorm.Session{})
	tx.Statement.Context = context.Background()
	assert.NotPanics(t, func() { annotateStatement(tx, 0) })

	tx.Statement.Context = nil
	assert.NotPanics(t, func() { annotateStatement(tx, 0) })
}
