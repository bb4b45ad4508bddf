package metric

import (
	"context"
	"fmt"
	"io"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/c360/circbuf/errors"
)

// Scrape fetches a Prometheus text endpoint and returns the counters
// labelled component=component, keyed by metric family name.
func Scrape(ctx context.Context, url, component string) (map[string]uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Metrics", "Scrape", "create http request")
	}
	// Plain text exposition, not OpenMetrics
	req.Header.Set("Accept", "text/plain")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(err, "Metrics", "Scrape", "fetch metrics")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: unexpected status code %d", errors.ErrUnavailable, resp.StatusCode),
			"Metrics", "Scrape", "check http status")
	}

	families, err := ParseText(resp.Body)
	if err != nil {
		return nil, err
	}
	return CounterValues(families, component), nil
}

// ParseText parses the Prometheus text exposition format
func ParseText(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"Metrics", "ParseText", "parse prometheus text format")
	}
	return families, nil
}

// CounterValues extracts counter values labelled component=component
func CounterValues(families map[string]*dto.MetricFamily, component string) map[string]uint64 {
	counters := make(map[string]uint64)

	for name, family := range families {
		if family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "component" && label.GetValue() == component {
					counters[name] = uint64(m.GetCounter().GetValue())
					break
				}
			}
		}
	}

	return counters
}
