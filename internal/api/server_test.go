package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kindred/internal/community"
	"github.com/talgya/kindred/internal/engine"
	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/persistence"
	"github.com/talgya/kindred/internal/relations"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	srv    *Server
	router *gin.Engine
	chief  *people.Person
	dad    *people.Person
	mum    *people.Person
	child  *people.Person
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := community.New(community.DefaultOptions(1))
	rules := engine.DefaultRules()
	rules.BirthChance = 0
	sim := engine.NewSimulation(c, nil, rules)

	mk := func(name, gender string, age int) *people.Person {
		p, err := c.CreatePerson(people.CreateOptions{Name: name, Gender: gender, Age: &age})
		require.NoError(t, err)
		return p
	}
	f := &fixture{
		chief: mk("Piast", "male", 50),
		dad:   mk("Ziemowit", "male", 30),
		mum:   mk("Rzepicha", "female", 28),
	}
	require.NoError(t, c.Update(func() error {
		if err := c.Graph.Add(f.dad.ID, f.mum.ID, relations.Spouse); err != nil {
			return err
		}
		child, err := c.Family.GrowFamily(f.dad)
		if err != nil {
			return err
		}
		f.child = child
		for _, m := range []*people.Person{f.dad, f.mum} {
			if err := c.Graph.Add(f.chief.ID, m.ID, relations.Leader); err != nil {
				return err
			}
		}
		return nil
	}))
	require.NotNil(t, f.child)
	require.NoError(t, sim.Seed(0))
	require.NoError(t, sim.TickYear())

	f.srv = &Server{Community: c, Sim: sim}
	f.router = f.srv.Router()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

type testCases []testCase
type testCase struct {
	name string
	run  func(t *testing.T)
}

func (tcs testCases) run(t *testing.T) {
	for _, tc := range tcs {
		t.Run(tc.name, tc.run)
	}
}

func TestServer_reads(t *testing.T) {
	f := newFixture(t)

	testCases{
		{"status", func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/v1/status", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "kindred", body["name"])
			assert.EqualValues(t, 1, body["year"])
			assert.NotContains(t, body, "speed")
		}},

		{"persons", func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/v1/persons", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.EqualValues(t, 4, body["count"])

			persons := body["persons"].([]any)
			first := persons[0].(map[string]any)
			assert.Equal(t, "Piast", first["name"])
			assert.Equal(t, true, first["leads"])
			second := persons[1].(map[string]any)
			assert.Equal(t, "Piast", second["leader"])
			assert.Equal(t, true, second["in_family"])
		}},

		{"persons filtered and limited", func(t *testing.T) {
			_, body := f.do(t, http.MethodGet, "/api/v1/persons?gender=female&limit=1", "")
			require.EqualValues(t, 1, body["count"])
			p := body["persons"].([]any)[0].(map[string]any)
			assert.Equal(t, "female", p["gender"])
		}},

		{"person", func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/v1/persons/"+f.mum.ID.String(), "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, true, body["in_family"])
			rels := body["relations"].([]any)
			assert.Len(t, rels, 3, "leader, spouse, child")
		}},

		{"person relations", func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/v1/persons/"+f.child.ID.String()+"/relations", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.EqualValues(t, 2, body["count"])
			rel := body["relations"].([]any)[0].(map[string]any)
			assert.Equal(t, "father", rel["kind"])
			assert.Equal(t, false, rel["outgoing"])
			assert.Equal(t, "Ziemowit", rel["other_name"])
		}},

		{"bad and unknown ids", func(t *testing.T) {
			w, _ := f.do(t, http.MethodGet, "/api/v1/persons/not-a-uuid", "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			w, _ = f.do(t, http.MethodGet, "/api/v1/persons/"+uuid.NewString(), "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			w, _ = f.do(t, http.MethodGet, "/api/v1/persons/"+uuid.NewString()+"/relations", "")
			assert.Equal(t, http.StatusNotFound, w.Code)
		}},

		{"tribes", func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/v1/tribes", "")
			require.Equal(t, http.StatusOK, w.Code)
			require.EqualValues(t, 1, body["count"])
			tribe := body["tribes"].([]any)[0].(map[string]any)
			assert.Equal(t, f.chief.ID.String(), tribe["leader"])
			assert.EqualValues(t, 2, tribe["size"])
		}},

		{"tribe", func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/v1/tribes/"+f.chief.ID.String(), "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "Tribe of Piast", body["name"])

			w, _ = f.do(t, http.MethodGet, "/api/v1/tribes/"+f.dad.ID.String(), "")
			assert.Equal(t, http.StatusNotFound, w.Code)
		}},

		{"families", func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/v1/families", "")
			require.Equal(t, http.StatusOK, w.Code)
			require.EqualValues(t, 1, body["count"])
			fam := body["families"].([]any)[0].(map[string]any)
			assert.Equal(t, "Ziemowit", fam["father_name"])
			assert.Equal(t, []any{f.child.ID.String()}, fam["children"])
		}},

		{"history from memory", func(t *testing.T) {
			_, body := f.do(t, http.MethodGet, "/api/v1/history?limit=1", "")
			require.EqualValues(t, 1, body["count"])
			row := body["history"].([]any)[0].(map[string]any)
			assert.EqualValues(t, 1, row["year"])
		}},

		{"events from memory", func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/v1/events?category=nothing", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.EqualValues(t, 0, body["count"])
			assert.Equal(t, []any{}, body["events"])
		}},
	}.run(t)
}

func TestServer_database(t *testing.T) {
	f := newFixture(t)
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Archive(engine.Stats{Year: 7, Population: 3}, []engine.Event{
		{Year: 7, Description: "first", Category: engine.CategoryBirth},
		{Year: 7, Description: "second", Category: engine.CategoryDeath},
	}))
	f.srv.DB = db
	f.router = f.srv.Router()

	_, body := f.do(t, http.MethodGet, "/api/v1/history", "")
	require.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 7, body["history"].([]any)[0].(map[string]any)["year"])

	_, body = f.do(t, http.MethodGet, "/api/v1/events", "")
	require.EqualValues(t, 2, body["count"])
	assert.Equal(t, "second", body["events"].([]any)[0].(map[string]any)["description"])

	_, body = f.do(t, http.MethodGet, "/api/v1/events?category=birth", "")
	assert.EqualValues(t, 1, body["count"])
}

func TestServer_speed(t *testing.T) {
	f := newFixture(t)
	const path = "/api/v1/speed"

	w, _ := f.do(t, http.MethodPost, path, `{"speed": 2}`)
	assert.Equal(t, http.StatusForbidden, w.Code, "no admin key configured")

	f.srv.AdminKey = "secret"
	f.router = f.srv.Router()
	w, _ = f.do(t, http.MethodPost, path, `{"speed": 2}`, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(t, http.MethodPost, path, `{"speed": 2}`, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no engine")

	f.srv.Eng = engine.NewEngine()
	w, body := f.do(t, http.MethodPost, path, `{"speed": 2.5}`, "Authorization", "Bearer secret")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.5, body["speed"])
	assert.Equal(t, 2.5, f.srv.Eng.Speed())

	for _, bad := range []string{`{}`, `{"speed": -1}`, `{"speed": 5000}`, `not json`} {
		w, _ = f.do(t, http.MethodPost, path, bad, "Authorization", "Bearer secret")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}

	_, body = f.do(t, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, 2.5, body["speed"])
	assert.Equal(t, false, body["running"])
}

func TestServer_rateLimit(t *testing.T) {
	f := newFixture(t)
	f.srv.Limiter = NewRateLimiter(2, time.Minute)
	f.router = f.srv.Router()

	for i := 0; i < 2; i++ {
		w, _ := f.do(t, http.MethodGet, "/api/v1/status", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, body := f.do(t, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_window(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients are independent")
	assert.Equal(t, 61, rl.RetryAfter("a"))
	assert.Zero(t, rl.RetryAfter("nobody"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))

	now = now.Add(3 * time.Minute)
	rl.Allow("c")
	assert.NotContains(t, rl.buckets, "b", "idle buckets are swept")
}
