package fasttrack_test

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/htmlutil"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform/fasttrack"
)

const fullPageURL = "https://fasttrack.ocfl.net/onlineservices/permits"

const fullPage = `<html><head><title>Orange County Building Department - FastTrack</title></head>
<body>
<div class="site-title">Orange County Online Services</div>
<h1 class="department-header">Orange County Building Division</h1>
<div class="permit-services">Apply for a residential building permit online through FastTrack.</div>
<section class="service-inspection">Schedule an inspection 24 hours in advance.</section>
<a href="/docs/Residential-Permit-Application.pdf">Residential Permit Application</a>
<a href="https://ocfl.net/docs/checklist.docx">Submittal Checklist</a>
<a href="mailto:x@ocfl.net">Email form</a>
<table class="fee-table"><tr><th>Permit Type</th><th>Base Fee</th></tr><tr><td>Residential</td><td>$75</td></tr><tr><td>Commercial</td><td>$150</td></tr></table>
<p>Plan review fee: $45 per sheet</p>
<p>Phone: (407) 836-5550</p>
<p>Email: permits@ocfl.net</p>
<address>201 S. Rosalind Ave, Orlando, FL 32801</address>
<p>Office hours: Monday - Friday, 8:00 am to 5:00 pm</p>
<p>Standard processing takes 10 business days.</p>
</body></html>`

func newPlugin(t *testing.T, opts ...platform.ProfileOption) *platform.ProfilePlugin {
	t.Helper()
	p, err := fasttrack.New(opts...)
	require.NoError(t, err)
	return p
}

func extract(t *testing.T, p platform.Plugin, pageURL, html string) *domain.Record {
	t.Helper()
	doc, err := htmlutil.Parse(html)
	require.NoError(t, err)
	return p.Extract(pageURL, html, doc)
}

func TestProfile_Embedded(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)

	assert.Equal(t, fasttrack.Name, p.Name())
	assert.Equal(t, []string{
		"fasttrack.", "/onlineservices/", "FastTrack", "Online Services",
		"Building Permit Services", "County Building Department", "Permit Portal",
	}, p.Info().Signatures)
	assert.Equal(t, []string{
		platform.RuleDepartment, platform.RuleServices, platform.RuleDownloads, platform.RuleFees,
		platform.RulePhone, platform.RuleEmail, platform.RuleAddress, platform.RuleHours,
		platform.RuleTurnaround,
	}, p.RuleNames())
}

func TestDetect(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)

	tests := []struct {
		name string
		url  string
		html string
		want bool
	}{
		{name: "url and body", url: "https://ocfl.net/onlineservices/permits", html: "FastTrack Online Services", want: true},
		{name: "url only", url: "https://FASTTRACK.county.gov/", html: "", want: true},
		{name: "body case-insensitive", url: "https://county.gov", html: "<p>permit portal</p>", want: true},
		{name: "county building department", url: "https://x.gov", html: "Welcome to the County Building Department", want: true},
		{name: "no signature", url: "https://example.com", html: "<p>hello</p>", want: false},
		{name: "empty", url: "", html: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, p.Detect(tt.url, tt.html))
		})
	}
}

func TestExtract_NotDetected_ReturnsNil(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	html := `<h1>Building Department</h1><p>Phone: 407-836-5550</p>`

	assert.Nil(t, extract(t, p, "https://example.com", html))
}

func TestExtract_DepartmentOnly(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	rec := extract(t, p, "https://fasttrack.county.gov/", `<html><body><h1>Building Department</h1></body></html>`)

	require.NotNil(t, rec)
	assert.Equal(t, "Building Department", rec.DepartmentName)
	assert.InDelta(t, 0.3, rec.Confidence, 1e-9)
	assert.Equal(t, domain.DefaultState, rec.State)
	assert.Equal(t, fasttrack.Name, rec.Platform)
	assert.Equal(t, []string{platform.RuleDepartment}, rec.Evidence.Fired())
}

func TestExtract_DetectionOnly_ReturnsNil(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)

	assert.Nil(t, extract(t, p, "https://county.gov", `<p>FastTrack</p>`))
}

func TestExtract_RelativeDownloadJoined(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	html := `<p>Permit Portal</p><a href="/forms/permit-app.pdf">Permit Application Form</a>`
	rec := extract(t, p, "https://county.gov/x", html)

	require.NotNil(t, rec)
	require.Len(t, rec.DownloadableApplications, 1)
	assert.Equal(t, domain.Download{
		Title: "Permit Application Form",
		URL:   "https://county.gov/forms/permit-app.pdf",
	}, rec.DownloadableApplications[0])
	assert.InDelta(t, 0.3, rec.Confidence, 1e-9)
}

func TestExtract_DownloadsSkipNonHTTP(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	html := `<p>Permit Portal</p>
<a href="forms/permit.pdf">Permit form (relative)</a>
<a href="ftp://county.gov/permit.pdf">Permit form (ftp)</a>
<a href="/forms/brochure.pdf">Visitor brochure</a>`

	assert.Nil(t, extract(t, p, "https://county.gov/x", html))
}

func TestExtract_DownloadsCappedAtFive(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	var b strings.Builder
	b.WriteString("<p>FastTrack</p>")
	for i := range 7 {
		fmt.Fprintf(&b, `<a href="/forms/permit-%d.pdf">Permit form %d</a>`, i, i)
	}

	rec := extract(t, p, "https://county.gov/", b.String())

	require.NotNil(t, rec)
	require.Len(t, rec.DownloadableApplications, domain.MaxDownloads)
	for i, d := range rec.DownloadableApplications {
		assert.Equal(t, fmt.Sprintf("https://county.gov/forms/permit-%d.pdf", i), d.URL)
	}
	assert.InDelta(t, 0.3, rec.Confidence, 1e-9)
}

func TestExtract_FeeScheduleTable(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	html := `<p>FastTrack Online Services</p>
<table class="Fee-Schedule">
<tr><th>Permit Type</th><th>Fee</th></tr>
<tr><td>Residential</td><td>$100</td></tr>
<tr><td>Commercial</td><td>$250</td></tr>
<tr><td>Electrical</td><td>$60</td></tr>
<tr><td>Plumbing</td><td>$60</td></tr>
</table>`

	rec := extract(t, p, "https://county.gov/", html)

	require.NotNil(t, rec)
	assert.Equal(t, "Fee schedule with 4 permit types", rec.PermitFee)
	assert.InDelta(t, 0.3, rec.Confidence, 1e-9)
}

func TestExtract_FeeTextAggregatesFirstThree(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	html := `<p>FastTrack</p>
<li>Residential fee: $100 flat</li>
<li>$5</li>
<li>Commercial fee: $250 per unit</li>
<li>Demolition fee: $75 flat</li>`

	rec := extract(t, p, "https://county.gov/", html)

	// The second candidate is too short; the fourth is past the cap.
	require.NotNil(t, rec)
	assert.Equal(t, "Residential fee: $100 flat | Commercial fee: $250 per unit", rec.PermitFee)
}

func TestExtract_TurnaroundTime(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	html := `<p>FastTrack</p><p>Processing time: 10 business days for residential permits</p>`

	rec := extract(t, p, "https://county.gov/", html)

	require.NotNil(t, rec)
	assert.Equal(t, "Processing time: 10 business days", rec.TurnaroundTime)
	assert.InDelta(t, 0.2, rec.Confidence, 1e-9)
}

func TestExtract_FullPage(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	rec := extract(t, p, fullPageURL, fullPage)

	require.NotNil(t, rec)
	assert.Equal(t, fullPageURL, rec.SourceURL)
	assert.Equal(t, "Florida", rec.State)
	assert.Equal(t, "Orange County", rec.County)
	assert.Equal(t, "Orange County Building Division", rec.DepartmentName)
	assert.Equal(t,
		"Apply for a residential building permit online through FastTrack. | Schedule an inspection 24 hours in advance.",
		rec.ProcessingInstructions)
	assert.Equal(t, domain.Downloads{
		{Title: "Residential Permit Application", URL: "https://fasttrack.ocfl.net/docs/Residential-Permit-Application.pdf"},
		{Title: "Submittal Checklist", URL: "https://ocfl.net/docs/checklist.docx"},
	}, rec.DownloadableApplications)
	assert.Equal(t, "Fee schedule with 2 permit types | Plan review fee: $45 per sheet", rec.PermitFee)
	assert.Equal(t, "(407) 836-5550", rec.Phone)
	assert.Equal(t, "permits@ocfl.net", rec.Email)
	assert.Equal(t, "201 S. Rosalind Ave, Orlando, FL 32801", rec.Address)
	assert.Equal(t, "Office hours: Monday - Friday, 8:00 am to 5:00 pm", rec.Hours)
	assert.Equal(t, "processing takes 10 business days", rec.TurnaroundTime)
	assert.InDelta(t, domain.MaxConfidence, rec.Confidence, 1e-9)
	assert.Len(t, rec.Evidence, len(p.RuleNames()))
	assert.Len(t, rec.Evidence.Fired(), len(p.RuleNames()))
}

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	first := extract(t, p, fullPageURL, fullPage)
	second := extract(t, p, fullPageURL, fullPage)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
	assert.Zero(t, first.ExtractedAt)
}

func TestExtract_NilDocumentParsesHTML(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	rec := p.Extract(fullPageURL, fullPage, nil)

	require.NotNil(t, rec)
	assert.Equal(t, "Orange County Building Division", rec.DepartmentName)
}

func TestExtract_ConcurrentUse(t *testing.T) {
	t.Parallel()

	p := newPlugin(t)
	const workers = 8

	var wg sync.WaitGroup
	results := make([]*domain.Record, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Extract(fullPageURL, fullPage, nil)
		}(i)
	}
	wg.Wait()

	for _, rec := range results {
		require.NotNil(t, rec)
		assert.Equal(t, "(407) 836-5550", rec.Phone)
		assert.InDelta(t, domain.MaxConfidence, rec.Confidence, 1e-9)
	}
}

type panickingAddress struct {
	htmlutil.Toolkit
}

func (panickingAddress) FindAddressBlock(*goquery.Document) string {
	panic("address lookup exploded")
}

// debugRecorder keeps the messages logged at debug level.
type debugRecorder struct {
	logger.Logger
	mu       sync.Mutex
	messages []string
}

func (r *debugRecorder) Debug(msg string, _ ...logger.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func TestExtract_RulePanicIsRecovered(t *testing.T) {
	t.Parallel()

	logs := &debugRecorder{Logger: logger.NewNop()}
	p := newPlugin(t, platform.WithHelpers(panickingAddress{}), platform.WithLogger(logs))
	rec := extract(t, p, fullPageURL, fullPage)
	assert.Equal(t, []string{"Extraction rule skipped"}, logs.messages)

	require.NotNil(t, rec)
	assert.Empty(t, rec.Address)
	assert.Equal(t, "Office hours: Monday - Friday, 8:00 am to 5:00 pm", rec.Hours)

	var addr domain.RuleResult
	for _, r := range rec.Evidence {
		if r.Rule == platform.RuleAddress {
			addr = r
		}
	}
	assert.False(t, addr.Fired)
	assert.Contains(t, addr.SkipReason, "panicked")
}

// departmentPage wraps body in a detected page whose department rule fires,
// so the record is returned whatever the rule under test finds.
func departmentPage(body string) string {
	return `<html><body><h1>Building Department</h1><p>FastTrack</p>` + body + `</body></html>`
}

func TestExtract_ServicesRule(t *testing.T) {
	t.Parallel()

	long := "Permit " + strings.Repeat("x", 250)
	atUpper := "Permit " + strings.Repeat("x", 293)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "truncated to 200 runes",
			body: `<div class="permit-info">` + long + `</div>`,
			want: long[:200],
		},
		{
			name: "300 runes is too long",
			body: `<div class="permit-info">` + atUpper + `</div><div class="permit-b">Apply for a building permit online</div>`,
			want: "Apply for a building permit online",
		},
		{
			name: "15 runes is too short",
			body: `<div class="permit-info">Permit 12345678</div>`,
		},
		{
			name: "first three joined",
			body: `<div class="service-a">Residential permit intake desk</div>
<div class="service-b">Commercial permit plan review</div>
<div class="service-c">Inspection scheduling by phone</div>
<div class="service-d">Contractor license renewals</div>`,
			want: "Residential permit intake desk | Commercial permit plan review | Inspection scheduling by phone",
		},
		{
			name: "class must match",
			body: `<div class="sidebar">Apply for a building permit online</div>`,
		},
	}

	p := newPlugin(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := extract(t, p, "https://county.gov/", departmentPage(tt.body))

			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.ProcessingInstructions)
			if tt.want == "" {
				assert.NotContains(t, rec.Evidence.Fired(), platform.RuleServices)
				assert.InDelta(t, 0.3, rec.Confidence, 1e-9)
			} else {
				assert.Contains(t, rec.Evidence.Fired(), platform.RuleServices)
				assert.InDelta(t, 0.6, rec.Confidence, 1e-9)
			}
		})
	}
}

func TestExtract_HoursRule(t *testing.T) {
	t.Parallel()

	long := "Office hours: 8:00 am to 5:00 pm " + strings.Repeat("x", 100)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "pattern without hour", body: `<p>Open Monday - Friday 8am</p>`},
		{name: "hour without am, pm or colon", body: `<span>Monday through Friday hours vary</span>`},
		{
			name: "later element qualifies",
			body: `<p>Open Monday - Friday 8am</p><p>Hours: 9 am - 4 pm</p>`,
			want: "Hours: 9 am - 4 pm",
		},
		{name: "truncated to 100 runes", body: `<div>` + long + `</div>`, want: long[:100]},
		{name: "nested markup is not own text", body: `<p>Hours: <b>9 am - 4 pm</b></p>`},
	}

	p := newPlugin(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := extract(t, p, "https://county.gov/", departmentPage(tt.body))

			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.Hours)
			assert.Equal(t, tt.want != "", slices.Contains(rec.Evidence.Fired(), platform.RuleHours))
		})
	}
}

func TestExtract_TurnaroundPatternPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "review outranks approval",
			body: `<p>Approval in 3 days. Review takes 7 business days.</p>`,
			want: "Review takes 7 business days",
		},
		{
			name: "processing outranks earlier review",
			body: `<p>Review takes 5 days.</p><p>Processing takes 10 days.</p>`,
			want: "Processing takes 10 days",
		},
		{
			name: "approval alone",
			body: `<p>Approval within 2 days</p>`,
			want: "Approval within 2 days",
		},
		{name: "no duration", body: `<p>Review is quick.</p>`},
	}

	p := newPlugin(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := extract(t, p, "https://county.gov/", departmentPage(tt.body))

			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.TurnaroundTime)
		})
	}
}

func TestExtract_FeeCaps(t *testing.T) {
	t.Parallel()

	feeTable := func(rows int) string {
		var b strings.Builder
		b.WriteString(`<table class="fee-table"><tr><th>Permit Type</th><th>Fee</th></tr>`)
		for i := range rows {
			fmt.Fprintf(&b, `<tr><td>Type %d</td><td>$%d</td></tr>`, i, 50+i)
		}
		b.WriteString(`</table>`)
		return b.String()
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "tables and text share the cap of three",
			body: feeTable(1) + feeTable(2) +
				`<p>Plan review fee: $45 per sheet</p><p>Re-inspection fee: $60 each</p>`,
			want: "Fee schedule with 1 permit types | Fee schedule with 2 permit types | Plan review fee: $45 per sheet",
		},
		{
			name: "at most two tables",
			body: feeTable(1) + feeTable(2) + feeTable(3),
			want: "Fee schedule with 1 permit types | Fee schedule with 2 permit types",
		},
		{
			name: "table without fee header",
			body: `<table class="cost-grid"><tr><th>Type</th><th>Amount</th></tr><tr><td>A</td><td>$5</td></tr></table>`,
		},
	}

	p := newPlugin(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := extract(t, p, "https://county.gov/", departmentPage(tt.body))

			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.PermitFee)
		})
	}
}
