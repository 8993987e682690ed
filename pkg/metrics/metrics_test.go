package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "voyager")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.name("x"), ShouldEqual, "pfx_x")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When empty option values are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "voyager")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording protocol metrics", func() {
			before := testutil.ToFloat64(globalManager.messagesEncoded.WithLabelValues("sched"))
			RecordMessageEncoded("sched", 812)
			RecordMessageDecoded("sched")
			RecordDuplicateScan()

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.messagesEncoded.WithLabelValues("sched")), ShouldEqual, before+1)
			})
		})

		Convey("When recording store metrics", func() {
			before := testutil.ToFloat64(globalManager.rowsWritten.WithLabelValues("matchscouting"))
			RecordRowsWritten("matchscouting", 6)
			RecordRowsWritten("matchscouting", 0)
			RecordRowsPreserved(2)
			RecordImportDuration("sched", 3.5)

			Convey("Then only positive counts are added", func() {
				So(testutil.ToFloat64(globalManager.rowsWritten.WithLabelValues("matchscouting")), ShouldEqual, before+6)
			})
		})

		Convey("When recording codec, HTTP and error metrics", func() {
			So(func() {
				RecordCodecLatency("compress", 1.2)
				UpdateCodecQueueSize(3)
				UpdateCodecWorkers(2)
				RecordHTTPRequest("scan", "POST", "200")
				RecordHTTPRequestDuration("scan", "POST", "200", 4)
				RecordError("importer", "target_not_found")
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.codecWorkers), ShouldEqual, 2)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
