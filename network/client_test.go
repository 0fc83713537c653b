package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/podtube-cli/podtube/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given a plain client", t, func() {
		var agent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agent = r.Header.Get("User-Agent")
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		c := New(false)

		Convey("It should carry a cookie jar", func() {
			So(c.Jar, ShouldNotBeNil)
		})

		Convey("It should stamp the default user agent", func() {
			resp, err := c.Get(server.URL)
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(agent, ShouldEqual, constant.UserAgent)
		})

		Convey("It should keep an explicit user agent", func() {
			req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
			req.Header.Set("User-Agent", "custom")
			resp, err := c.Do(req)
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(agent, ShouldEqual, "custom")
		})
	})

	Convey("A fingerprinted client should route plain http over HTTP/1.1", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		resp, err := New(true).Get(server.URL)
		So(err, ShouldBeNil)
		resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
	})
}
