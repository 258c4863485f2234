package handler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/carelog/export-summariser/apiclient"
	"github.com/carelog/export-summariser/config"
	"github.com/carelog/export-summariser/handler"
	"github.com/carelog/export-summariser/handler/mock"
	"github.com/carelog/export-summariser/summary"
)

var ctx = context.Background()

const testExportID = "demo"

var errFetch = errors.New("test fetch error")

func testCfg() config.Config {
	return config.Config{
		NumWorkers:      3,
		DownloadTimeout: 30 * time.Second,
		ReadChunkSize:   16,
	}
}

func testDownloads() []apiclient.Download {
	return []apiclient.Download{
		{ID: "d1", ExportID: testExportID},
		{ID: "d2", ExportID: testExportID},
	}
}

// CSV bodies for the documented two-partition example
var testBodies = map[string]string{
	"d1": "patient_id,event_time,event_type,value\n" +
		"P001,2025-08-26T00:00:01Z,heart_rate,72\n" +
		"P001,2025-08-26T00:00:08Z,heart_rate,75\n",
	"d2": "patient_id,event_time,event_type,value\n" +
		"P001,2025-08-26T00:00:15Z,spo2,98\n" +
		"P002,2025-08-26T00:00:22Z,heart_rate,80\n",
}

func apiClientHappy() *mock.ExportAPIClientMock {
	return &mock.ExportAPIClientMock{
		GetDownloadsFunc: func(ctx context.Context, exportID string) ([]apiclient.Download, error) {
			return testDownloads(), nil
		},
		DownloadDataFunc: func(ctx context.Context, d apiclient.Download) (io.ReadCloser, error) {
			body, ok := testBodies[d.ID]
			if !ok {
				return nil, fmt.Errorf("unexpected download id %q", d.ID)
			}
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func expectedAggregate() *summary.Aggregate {
	agg := summary.New()
	agg.Inc("P001", "heart_rate")
	agg.Inc("P001", "heart_rate")
	agg.Inc("P001", "spo2")
	agg.Inc("P002", "heart_rate")
	return agg
}

func TestHandle(t *testing.T) {
	Convey("Given an export with two healthy partitions", t, func() {
		api := apiClientHappy()
		summariser := handler.NewExportSummary(testCfg(), api)

		Convey("When the export is summarised", func() {
			agg, failed, err := summariser.Handle(ctx, testExportID)

			Convey("Then the partition aggregates are merged into the expected result", func() {
				So(err, ShouldBeNil)
				So(failed, ShouldBeEmpty)
				So(cmp.Diff(expectedAggregate(), agg), ShouldBeEmpty)
			})

			Convey("Then every download was fetched exactly once", func() {
				So(api.GetDownloadsCalls(), ShouldHaveLength, 1)
				So(api.GetDownloadsCalls()[0].ExportID, ShouldEqual, testExportID)
				So(api.DownloadDataCalls(), ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given partitions listed in the opposite order", t, func() {
		api := apiClientHappy()
		api.GetDownloadsFunc = func(ctx context.Context, exportID string) ([]apiclient.Download, error) {
			downloads := testDownloads()
			downloads[0], downloads[1] = downloads[1], downloads[0]
			return downloads, nil
		}
		summariser := handler.NewExportSummary(testCfg(), api)

		Convey("Then the merged result is identical", func() {
			agg, failed, err := summariser.Handle(ctx, testExportID)
			So(err, ShouldBeNil)
			So(failed, ShouldBeEmpty)
			So(cmp.Diff(expectedAggregate(), agg), ShouldBeEmpty)
		})
	})

	Convey("Given a single worker processing the same partitions", t, func() {
		api := apiClientHappy()
		cfg := testCfg()
		cfg.NumWorkers = 1
		summariser := handler.NewExportSummary(cfg, api)

		Convey("Then the merged result does not depend on the pool size", func() {
			agg, failed, err := summariser.Handle(ctx, testExportID)
			So(err, ShouldBeNil)
			So(failed, ShouldBeEmpty)
			So(cmp.Diff(expectedAggregate(), agg), ShouldBeEmpty)
		})
	})

	Convey("Given one partition that fails to fetch", t, func() {
		api := apiClientHappy()
		api.DownloadDataFunc = func(ctx context.Context, d apiclient.Download) (io.ReadCloser, error) {
			if d.ID == "d2" {
				return nil, errFetch
			}
			return io.NopCloser(strings.NewReader(testBodies[d.ID])), nil
		}
		summariser := handler.NewExportSummary(testCfg(), api)

		Convey("When the export is summarised", func() {
			agg, failed, err := summariser.Handle(ctx, testExportID)

			Convey("Then the run succeeds with the failed partition excluded", func() {
				So(err, ShouldBeNil)
				So(agg.Patients["P001"]["heart_rate"], ShouldEqual, 2)
				So(agg.Totals, ShouldNotContainKey, "spo2")
			})

			Convey("Then the failure is reported against its descriptor", func() {
				So(failed, ShouldHaveLength, 1)
				So(failed[0].Download.ID, ShouldEqual, "d2")
				So(errors.Is(failed[0], errFetch), ShouldBeTrue)
			})
		})
	})

	Convey("Given a partition whose body fails mid-stream", t, func() {
		api := apiClientHappy()
		api.DownloadDataFunc = func(ctx context.Context, d apiclient.Download) (io.ReadCloser, error) {
			if d.ID == "d2" {
				return io.NopCloser(io.MultiReader(
					strings.NewReader(testBodies[d.ID][:20]),
					&brokenReader{},
				)), nil
			}
			return io.NopCloser(strings.NewReader(testBodies[d.ID])), nil
		}
		summariser := handler.NewExportSummary(testCfg(), api)

		Convey("Then the partial partition is excluded, not merged", func() {
			agg, failed, err := summariser.Handle(ctx, testExportID)
			So(err, ShouldBeNil)
			So(failed, ShouldHaveLength, 1)
			So(failed[0].Download.ID, ShouldEqual, "d2")
			So(agg.Totals["heart_rate"], ShouldEqual, 2)
		})
	})

	Convey("Given an unknown export id", t, func() {
		api := &mock.ExportAPIClientMock{
			GetDownloadsFunc: func(ctx context.Context, exportID string) ([]apiclient.Download, error) {
				return nil, fmt.Errorf("failed to get downloads: %w", apiclient.ErrExportNotFound)
			},
		}
		summariser := handler.NewExportSummary(testCfg(), api)

		Convey("When the export is summarised", func() {
			agg, failed, err := summariser.Handle(ctx, "unknown")

			Convey("Then the run fails fatally with no aggregate", func() {
				So(agg, ShouldBeNil)
				So(failed, ShouldBeEmpty)
				So(errors.Is(err, apiclient.ErrExportNotFound), ShouldBeTrue)
			})

			Convey("Then the error carries the export id as log data", func() {
				logData := handler.UnwrapLogData(err)
				So(logData["export_id"], ShouldEqual, "unknown")
			})
		})
	})

	Convey("Given malformed rows spread across partitions", t, func() {
		api := apiClientHappy()
		api.DownloadDataFunc = func(ctx context.Context, d apiclient.Download) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(testBodies[d.ID] + "not,a,row\n")), nil
		}
		summariser := handler.NewExportSummary(testCfg(), api)

		Convey("Then skipped-row counts accumulate across the merge", func() {
			agg, failed, err := summariser.Handle(ctx, testExportID)
			So(err, ShouldBeNil)
			So(failed, ShouldBeEmpty)
			So(agg.SkippedRows, ShouldEqual, 2)
		})
	})
}

type brokenReader struct{}

func (r *brokenReader) Read(p []byte) (int, error) {
	return 0, errors.New("unexpected EOF")
}
