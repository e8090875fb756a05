package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecorder(t *testing.T) {
	Convey("Given a recorder on its own registry", t, func() {
		rec := New(WithNamespace("test"), WithRegistry(prometheus.NewRegistry()))

		Convey("When events, downloads and tool runs are recorded", func() {
			rec.EventResolved()
			rec.Download("bundle", ResultDownloaded, 2048)
			rec.Download("bundle", ResultSkipped, 0)
			rec.ToolRun("extractor", errors.New("exit 1"))
			rec.ObserveStage("scrape", time.Now().Add(-time.Second))

			path := filepath.Join(t.TempDir(), "rift.prom")
			err := rec.WriteTextfile(path)
			data, readErr := os.ReadFile(path)

			Convey("Then the textfile carries every series", func() {
				So(err, ShouldBeNil)
				So(readErr, ShouldBeNil)
				out := string(data)
				So(out, ShouldContainSubstring, "test_events_resolved_total 1")
				So(out, ShouldContainSubstring, `test_downloads_total{kind="bundle",result="downloaded"} 1`)
				So(out, ShouldContainSubstring, `test_downloaded_bytes_total{kind="bundle"} 2048`)
				So(out, ShouldContainSubstring, `test_tool_runs_total{result="error",tool="extractor"} 1`)
				So(out, ShouldContainSubstring, `test_stage_duration_seconds_count{stage="scrape"} 1`)
			})
		})

		Convey("When the path is empty", func() {
			So(rec.WriteTextfile(""), ShouldBeNil)
		})
	})
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.EventResolved()
	rec.Download("asset", ResultFailed, 10)
	rec.ToolRun("converter", nil)
	rec.ObserveStage("list", time.Now())
	if err := rec.WriteTextfile("/nonexistent/x.prom"); err != nil {
		t.Fatalf("nil recorder returned %v", err)
	}
}
