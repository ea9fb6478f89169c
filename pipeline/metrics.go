package pipeline

import "github.com/prometheus/client_golang/prometheus"

const (
	prometheusLabelStatus = "status"

	statusOK           = "ok"
	statusFetchError   = "fetch_error"
	statusExtractError = "extract_error"
)

type metrics struct {
	documents     *prometheus.CounterVec
	records       prometheus.Counter
	parseDuration prometheus.Summary
	bytes         prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (m *metrics, err error) {
	m = &metrics{
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagsoup_documents_total",
				Help: "processed documents by status",
			},
			[]string{prometheusLabelStatus},
		),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagsoup_records_written_total",
			Help: "records handed to the sink",
		}),
		parseDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:       "tagsoup_parse_duration_seconds",
			Help:       "decoding and parsing of a document",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagsoup_document_bytes_total",
			Help: "bytes of fetched markup",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.documents,
		m.records,
		m.parseDuration,
		m.bytes,
	} {
		if errRegister := reg.Register(c); errRegister != nil {
			return nil, errRegister
		}
	}
	return m, nil
}
