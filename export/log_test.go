package export_test

import (
	"bytes"
	"context"
	"testing"

	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/export"
)

func TestLogExporterWritesOneLinePerDataPoint(t *testing.T) {
	var buf bytes.Buffer
	e := export.NewLogExporter(kitlog.NewLogfmtLogger(&buf))

	require.NoError(t, e.Export(context.Background(), sampleData()))

	out := buf.String()
	assert.Contains(t, out, "metric=requests")
	assert.Contains(t, out, "kind=sum")
	assert.Contains(t, out, "value=10")
}

func TestLogExporterRejectsExportAfterShutdown(t *testing.T) {
	var buf bytes.Buffer
	e := export.NewLogExporter(kitlog.NewLogfmtLogger(&buf))
	require.NoError(t, e.Shutdown(context.Background()))

	err := e.Export(context.Background(), sampleData())
	assert.ErrorIs(t, err, metric.ErrExportFailed)
}
