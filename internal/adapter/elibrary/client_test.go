package elibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/domain/apperr"
)

const indexHTML = `<html><body>
<h2>2024</h2>
<a href="/thebookshelf/docmonth/Jan/2024/1">Jan</a>
<a href="/thebookshelf/docmonth/Feb/2024/1">Feb</a>
<a href="/thebookshelf/other">All issuances</a>
<h2>2023</h2>
<a href="/thebookshelf/docmonth/Dec/2023/1">Dec</a>
</body></html>`

const monthHTML = `<html><body><div id="left">
<ul>
<li><a href="/thebookshelf/showdocs/1/70001"><strong>G.R. No. 111111</strong><small>PEOPLE OF THE PHILIPPINES
   v. FIRST ACCUSED</small></a></li>
<li><a href="/thebookshelf/showdocs/1/70002"><strong>A.M. No. P-24-001</strong><small>IN RE: SECOND MATTER</small></a></li>
<li><a href="/thebookshelf/nodigits"><strong>skipped, no doc id</strong></a></li>
</ul>
</div></body></html>`

const decisionHTML = `<html><body><div id="left">
<h2>EN BANC</h2>
<p>G.R. No. 111111, January 15, 2024</p>
<p>WHEREFORE, the appeal is DENIED.</p>
<p>   </p>
</div><div id="sidebar"><p>unrelated navigation</p></div></body></html>`

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, 0, zap.NewNop())
}

func TestListMonthsFiltersYearRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, indexPath, r.URL.Path)
		_, _ = w.Write([]byte(indexHTML))
	}))
	defer server.Close()

	months, err := newTestClient(server.URL).ListMonths(context.Background(), 2024, 2024)
	require.NoError(t, err)

	require.Len(t, months, 2, "2023 entries and non-month anchors are skipped")
	assert.Equal(t, 2024, months[0].Year)
	assert.Equal(t, "Jan", months[0].Month)
	assert.Equal(t, server.URL+"/thebookshelf/docmonth/Jan/2024/1", months[0].URL)
	assert.Equal(t, "Feb", months[1].Month)
}

func TestListDecisionsParsesEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(monthHTML))
	}))
	defer server.Close()

	decisions, err := newTestClient(server.URL).ListDecisions(context.Background(), server.URL+"/month", 0)
	require.NoError(t, err)

	require.Len(t, decisions, 2, "entries without a numeric doc id are skipped")
	assert.Equal(t, "70001", decisions[0].DocID)
	assert.Equal(t, "G.R. No. 111111", decisions[0].DocketNo)
	assert.Equal(t, "PEOPLE OF THE PHILIPPINES v. FIRST ACCUSED", decisions[0].Title)
	assert.Equal(t, server.URL+"/thebookshelf/showdocs/1/70001", decisions[0].SourceURL)
	assert.Equal(t, "70002", decisions[1].DocID)
}

func TestListDecisionsHonorsMax(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(monthHTML))
	}))
	defer server.Close()

	decisions, err := newTestClient(server.URL).ListDecisions(context.Background(), server.URL+"/month", 1)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "70001", decisions[0].DocID)
}

func TestFetchDecisionTextJoinsContentLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(decisionHTML))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).FetchDecisionText(context.Background(), server.URL+"/doc")
	require.NoError(t, err)

	assert.Equal(t, "EN BANC\nG.R. No. 111111, January 15, 2024\nWHEREFORE, the appeal is DENIED.", text)
	assert.NotContains(t, text, "unrelated navigation")
}

func TestFetchDecisionTextEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="left"></div></body></html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchDecisionText(context.Background(), server.URL+"/doc")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConnector, apperr.KindOf(err))
}

func TestRateLimitedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchDecisionText(context.Background(), server.URL+"/doc")
	require.Error(t, err)
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	assert.True(t, apperr.Retryable(err))
}

func TestBlockPageDetection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Access Denied: unusual traffic from your network</p></body></html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchDecisionText(context.Background(), server.URL+"/doc")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBlocked, apperr.KindOf(err))
	assert.True(t, apperr.Retryable(err))
}

func TestServerErrorIsConnectorKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListMonths(context.Background(), 2024, 2024)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConnector, apperr.KindOf(err))
}
