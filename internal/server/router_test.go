package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"blog-be/internal/config"
	"blog-be/internal/jwt"
	"blog-be/internal/middleware"
	"blog-be/internal/notify"
	"blog-be/internal/repository/repositorytest"
	"blog-be/internal/service"
	"blog-be/internal/upload"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	gifBytes = append([]byte("GIF89a"), bytes.Repeat([]byte{0}, 32)...)
)

// lockedBuffer lets the access log be written from httptest server goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testApp struct {
	router    *gin.Engine
	store     *repositorytest.Store
	hub       *notify.Hub
	accessLog *lockedBuffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{
		FrontendURL:    "http://localhost:3000",
		FeedPageSize:   2,
		JSONBodyLimit:  1 << 16,
		MaxUploadBytes: 1 << 20,
	}
	log := zap.NewNop()

	uploads, err := upload.NewDiskStore(filepath.Join(t.TempDir(), "images"))
	require.NoError(t, err)

	store := repositorytest.NewStore()
	hub := notify.NewHub(log)
	tokens := jwt.NewJWTService("test-secret", time.Hour)
	limiter := middleware.NewRateLimiter(rate.Limit(1000), 1000)
	t.Cleanup(limiter.Stop)
	t.Cleanup(hub.Close)

	var accessLog lockedBuffer
	router := NewRouter(Deps{
		Config:      cfg,
		Log:         log,
		AccessLog:   &accessLog,
		Uploads:     uploads,
		Tokens:      tokens,
		Auth:        service.NewAuthService(store.Users(), tokens, log),
		Feed:        service.NewFeedService(store.Posts(), store.Users(), nil, hub, cfg.FeedPageSize, log),
		Hub:         hub,
		AuthLimiter: limiter,
	})

	return &testApp{router: router, store: store, hub: hub, accessLog: &accessLog}
}

func (a *testApp) do(method, path, contentType, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) doJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	return a.do(method, path, "application/json", token, bytes.NewReader(payload))
}

// signup registers a user and logs in, returning the user id and token.
func (a *testApp) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	w := a.doJSON(http.MethodPut, "/auth/signup", "", gin.H{"email": email, "password": "secret", "name": "Max"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return a.login(t, email)
}

func (a *testApp) login(t *testing.T, email string) (string, string) {
	t.Helper()
	w := a.doJSON(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	return login.UserID, login.Token
}

func postForm(t *testing.T, title, content, filename, contentType string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.WriteField("content", content))
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type postBody struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl"`
	Creator  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"creator"`
}

type postEnvelope struct {
	Message string   `json:"message"`
	Post    postBody `json:"post"`
}

func decodePost(t *testing.T, w *httptest.ResponseRecorder) postEnvelope {
	t.Helper()
	var env postEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
		Data    any    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Message
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "OPTIONS, GET, POST, PUT, PATCH, DELETE", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestSignupLoginAndCreateWithGIF(t *testing.T) {
	app := newTestApp(t)

	w := app.doJSON(http.MethodPut, "/auth/signup", "", gin.H{"email": "max@example.com", "password": "secret", "name": "Max"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"User created!"`)

	_, token := app.login(t, "max@example.com")

	body, ct := postForm(t, "First post", "Hello world", "anim.gif", "image/gif", gifBytes)
	w = app.do(http.MethodPost, "/feed/post", ct, token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodePost(t, w)
	assert.Equal(t, "Post created successfully!", env.Message)
	assert.Equal(t, "First post", env.Post.Title)
	assert.Nil(t, env.Post.ImageURL)
	assert.Equal(t, "Max", env.Post.Creator.Name)
	assertCORS(t, w)
}

func TestSignupValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.doJSON(http.MethodPost, "/auth/signup", "", gin.H{"email": "nope", "password": "123", "name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Validation failed, entered data is incorrect.", errorMessage(t, w))
	assertCORS(t, w)

	w = app.do(http.MethodPost, "/auth/signup", "application/x-www-form-urlencoded", "",
		strings.NewReader("email=max%40example.com&password=secret&name=Max"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "form-encoded bodies are not parsed")

	app.signup(t, "max@example.com")
	w = app.doJSON(http.MethodPut, "/auth/signup", "", gin.H{"email": "max@example.com", "password": "secret", "name": "Max"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "E-Mail address already exists!", errorMessage(t, w))
}

func TestLoginFailure(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "max@example.com")

	w := app.doJSON(http.MethodPost, "/auth/login", "", gin.H{"email": "max@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Wrong email or password.", errorMessage(t, w))
	assert.Contains(t, w.Body.String(), `"data":null`)
}

func TestMalformedJSON(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodPost, "/auth/login", "application/json", "", strings.NewReader(`{"email":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertCORS(t, w)
}

func TestFeedMutationsRequireToken(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "max@example.com")

	w := app.doJSON(http.MethodPost, "/feed/post", token, gin.H{"title": "First post", "content": "Hello world"})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := decodePost(t, w).Post.ID
	writes := app.store.Writes()

	requests := []struct {
		method string
		path   string
		token  string
	}{
		{http.MethodPost, "/feed/post", ""},
		{http.MethodPut, "/feed/post/" + postID, ""},
		{http.MethodDelete, "/feed/post/" + postID, ""},
		{http.MethodPost, "/feed/post", "garbage"},
		{http.MethodPut, "/feed/post/" + postID, "garbage"},
		{http.MethodDelete, "/feed/post/" + postID, "garbage"},
	}
	for i := 0; i < 3; i++ {
		for _, r := range requests {
			w := app.doJSON(r.method, r.path, r.token, gin.H{"title": "Hijacked", "content": "Hijacked"})
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
			assertCORS(t, w)
		}
	}
	assert.Equal(t, writes, app.store.Writes())
}

func TestPostLifecycle(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "max@example.com")

	body, ct := postForm(t, "First post", "Hello world", "cat.png", "image/png", pngBytes)
	w := app.do(http.MethodPost, "/feed/post", ct, token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodePost(t, w).Post
	require.NotNil(t, created.ImageURL)
	assert.Regexp(t, `^images/\d{1,4}-cat\.png$`, *created.ImageURL)

	w = app.do(http.MethodGet, "/"+*created.ImageURL, "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())
	assertCORS(t, w)

	w = app.do(http.MethodGet, "/feed/post/"+created.ID, "", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Post fetched.", decodePost(t, w).Message)

	w = app.doJSON(http.MethodPut, "/feed/post/"+created.ID, token, gin.H{"title": "Edited post", "content": "New words"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodePost(t, w).Post
	assert.Equal(t, "Edited post", updated.Title)
	assert.Equal(t, created.ImageURL, updated.ImageURL)

	w = app.do(http.MethodGet, "/feed/posts?page=1", "", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalItems":1`)
	assert.Contains(t, w.Body.String(), `"message":"Fetched posts successfully."`)

	w = app.do(http.MethodDelete, "/feed/post/"+created.ID, "", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Deleted post."}`, w.Body.String())

	w = app.do(http.MethodGet, "/feed/post/"+created.ID, "", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Could not find post.", errorMessage(t, w))
}

func TestConcurrentNonOwnerUpdates(t *testing.T) {
	app := newTestApp(t)
	_, ownerToken := app.signup(t, "owner@example.com")
	_, otherToken := app.signup(t, "other@example.com")

	w := app.doJSON(http.MethodPost, "/feed/post", ownerToken, gin.H{"title": "First post", "content": "Hello world"})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := decodePost(t, w).Post.ID
	writes := app.store.Writes()

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = app.doJSON(http.MethodPut, "/feed/post/"+postID, otherToken,
				gin.H{"title": "Hijacked", "content": "Hijacked"}).Code
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []int{http.StatusForbidden, http.StatusForbidden}, codes)
	assert.Equal(t, writes, app.store.Writes())

	w = app.do(http.MethodGet, "/feed/post/"+postID, "", ownerToken, nil)
	assert.Equal(t, "First post", decodePost(t, w).Post.Title)
}

func TestCORSAndSecurityHeadersEverywhere(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"unmatched", http.MethodGet, "/nowhere", http.StatusNotFound},
		{"missing image", http.MethodGet, "/images/0-missing.png", http.StatusNotFound},
		{"preflight", http.MethodOptions, "/feed/post", http.StatusNoContent},
		{"unauthenticated", http.MethodGet, "/feed/posts", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(tt.method, tt.path, "", "", nil)
			assert.Equal(t, tt.status, w.Code)
			assertCORS(t, w)
			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}

	w := app.do(http.MethodGet, "/nowhere", "", "", nil)
	assert.JSONEq(t, `{"message":"Not found.","data":null}`, w.Body.String())
}

func TestStatusRoutes(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "max@example.com")

	w := app.do(http.MethodGet, "/auth/status", "", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"I am new!"}`, w.Body.String())

	w = app.doJSON(http.MethodPatch, "/auth/status", token, gin.H{"status": "Writing a post"})
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/auth/status", "", token, nil)
	assert.JSONEq(t, `{"status":"Writing a post"}`, w.Body.String())

	w = app.doJSON(http.MethodPatch, "/auth/status", token, gin.H{"status": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestQRCode(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "max@example.com")

	w := app.doJSON(http.MethodPost, "/feed/post", token, gin.H{"title": "First post", "content": "Hello world"})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := decodePost(t, w).Post.ID

	w = app.do(http.MethodGet, "/feed/post/"+postID+"/qrcode", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = app.do(http.MethodGet, "/feed/post/missing/qrcode", "", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccessLogLinePerRequest(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/health", "", "", nil)
	app.do(http.MethodGet, "/nowhere", "", "", nil)

	lines := strings.Split(strings.TrimSpace(app.accessLog.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"GET /health HTTP/1.1" 200`)
	assert.Contains(t, lines[1], `"GET /nowhere HTTP/1.1" 404`)
}

func TestSocketReceivesFeedEvents(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "max@example.com")

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/socket", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return app.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Reads publish nothing; the first frame must be the create event.
	w := app.do(http.MethodGet, "/feed/posts", "", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.doJSON(http.MethodPost, "/feed/post", token, gin.H{"title": "First post", "content": "Hello world"})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := decodePost(t, w).Post.ID

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev notify.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "posts", ev.Channel)
	assert.Equal(t, notify.ActionCreate, ev.Action)
	require.NotNil(t, ev.Post)
	assert.Equal(t, postID, ev.Post.ID)
}
