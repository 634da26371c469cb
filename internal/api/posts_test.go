package api

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/scribe-social/scribe/internal/models"
)

func TestAnonymousNewPostRedirectsToLogin(t *testing.T) {
	ts := newTestServer(t)

	form := url.Values{"text": {"should not be stored"}}
	w := ts.do(t, http.MethodPost, "/new/", form, nil)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	location := w.Header().Get("Location")
	if location != "/auth/login/?next="+url.QueryEscape("/new/") {
		t.Errorf("Location = %q, want login redirect carrying next=/new/", location)
	}
	if got := ts.count(t, &models.Post{}); got != 0 {
		t.Errorf("anonymous POST created %d posts, want 0", got)
	}
}

func TestCreatePostAndViewDetail(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.signup(t, "andy")

	group := &models.Group{Title: "PoV", Slug: "pov", Description: "points of view"}
	if err := ts.gdb.Create(group).Error; err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	form := url.Values{
		"text":  {"Only the paranoid survive"},
		"group": {fmt.Sprintf("%d", group.ID)},
	}
	w := ts.do(t, http.MethodPost, "/new/", form, cookies)
	if w.Code != http.StatusFound {
		t.Fatalf("create post: status = %d, want 302, body: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Location") != "/" {
		t.Errorf("Location = %q, want /", w.Header().Get("Location"))
	}

	var post models.Post
	if err := ts.gdb.First(&post).Error; err != nil {
		t.Fatalf("post was not stored: %v", err)
	}
	if post.Text != "Only the paranoid survive" {
		t.Errorf("stored text = %q", post.Text)
	}
	if !post.GroupID.Valid || post.GroupID.Int64 != group.ID {
		t.Errorf("stored group = %+v, want %d", post.GroupID, group.ID)
	}

	// The detail page shows text, author, and group
	detail := fmt.Sprintf("/andy/%d/", post.ID)
	w = ts.do(t, http.MethodGet, detail, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detail: status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Only the paranoid survive", "andy", "PoV"} {
		if !strings.Contains(body, want) {
			t.Errorf("detail page missing %q", want)
		}
	}

	// Each view bumps the counter by one
	ts.do(t, http.MethodGet, detail, nil, nil)
	var after models.Post
	if err := ts.gdb.First(&after, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if after.Visits != 2 {
		t.Errorf("visits after 2 views = %d, want 2", after.Visits)
	}
}

func TestCreatePostRejectsEmptyText(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.signup(t, "andy")

	form := url.Values{"text": {"   "}}
	w := ts.do(t, http.MethodPost, "/new/", form, cookies)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Text must not be empty") {
		t.Error("form should re-render with the text error")
	}
	if got := ts.count(t, &models.Post{}); got != 0 {
		t.Errorf("invalid form created %d posts, want 0", got)
	}
}

func multipartPost(t *testing.T, ts *testServer, path string, fields map[string]string, filename string, fileData []byte, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write(fileData)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func TestCreatePostRejectsNonImageUpload(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.signup(t, "andy")

	// A text file masquerading as an image fails validation; nothing is
	// written
	w := multipartPost(t, ts, "/new/",
		map[string]string{"text": "has a bad attachment"},
		"image.txt", []byte("definitely not pixels"), cookies)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Upload a valid image") {
		t.Error("form should re-render with the image error")
	}
	if got := ts.count(t, &models.Post{}); got != 0 {
		t.Errorf("rejected upload created %d posts, want 0", got)
	}
}

func TestCreatePostWithImage(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.signup(t, "andy")

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}

	w := multipartPost(t, ts, "/new/",
		map[string]string{"text": "with a picture"},
		"photo.png", buf.Bytes(), cookies)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302, body: %s", w.Code, w.Body.String())
	}

	var post models.Post
	if err := ts.gdb.First(&post).Error; err != nil {
		t.Fatalf("post was not stored: %v", err)
	}
	if !strings.HasSuffix(post.Image, ".png") {
		t.Errorf("stored image = %q, want a .png file name", post.Image)
	}
}

func TestEditByNonAuthorRedirectsToDetail(t *testing.T) {
	ts := newTestServer(t)
	authorCookies := ts.signup(t, "alice")
	intruderCookies := ts.signup(t, "bob")

	form := url.Values{"text": {"Only the paranoid survive"}}
	if w := ts.do(t, http.MethodPost, "/new/", form, authorCookies); w.Code != http.StatusFound {
		t.Fatalf("create post: status = %d", w.Code)
	}

	var post models.Post
	if err := ts.gdb.First(&post).Error; err != nil {
		t.Fatalf("post was not stored: %v", err)
	}

	editPath := fmt.Sprintf("/alice/%d/edit/", post.ID)
	w := ts.do(t, http.MethodPost, editPath, url.Values{"text": {"hijacked"}}, intruderCookies)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if want := fmt.Sprintf("/alice/%d/", post.ID); w.Header().Get("Location") != want {
		t.Errorf("Location = %q, want %q", w.Header().Get("Location"), want)
	}

	var after models.Post
	if err := ts.gdb.First(&after, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if after.Text != "Only the paranoid survive" {
		t.Errorf("text changed by non-author: %q", after.Text)
	}
}

func TestEditByAuthor(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.signup(t, "alice")

	if w := ts.do(t, http.MethodPost, "/new/", url.Values{"text": {"v1"}}, cookies); w.Code != http.StatusFound {
		t.Fatalf("create post: status = %d", w.Code)
	}
	var post models.Post
	if err := ts.gdb.First(&post).Error; err != nil {
		t.Fatalf("post was not stored: %v", err)
	}

	editPath := fmt.Sprintf("/alice/%d/edit/", post.ID)
	w := ts.do(t, http.MethodPost, editPath, url.Values{"text": {"v2"}}, cookies)
	if w.Code != http.StatusFound {
		t.Fatalf("edit: status = %d, want 302", w.Code)
	}

	var after models.Post
	if err := ts.gdb.First(&after, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if after.Text != "v2" {
		t.Errorf("text = %q, want v2", after.Text)
	}
}

func TestDeletePost(t *testing.T) {
	ts := newTestServer(t)
	authorCookies := ts.signup(t, "alice")
	intruderCookies := ts.signup(t, "bob")

	if w := ts.do(t, http.MethodPost, "/new/", url.Values{"text": {"doomed"}}, authorCookies); w.Code != http.StatusFound {
		t.Fatalf("create post: status = %d", w.Code)
	}
	var post models.Post
	if err := ts.gdb.First(&post).Error; err != nil {
		t.Fatalf("post was not stored: %v", err)
	}

	deletePath := fmt.Sprintf("/alice/%d/delete/", post.ID)

	// A non-author is bounced to the detail view and the post survives
	w := ts.do(t, http.MethodPost, deletePath, url.Values{}, intruderCookies)
	if w.Code != http.StatusFound {
		t.Fatalf("non-author delete: status = %d, want 302", w.Code)
	}
	if got := ts.count(t, &models.Post{}); got != 1 {
		t.Fatalf("non-author delete removed the post")
	}

	w = ts.do(t, http.MethodPost, deletePath, url.Values{}, authorCookies)
	if w.Code != http.StatusFound {
		t.Fatalf("author delete: status = %d, want 302", w.Code)
	}
	if w.Header().Get("Location") != "/alice/" {
		t.Errorf("Location = %q, want /alice/", w.Header().Get("Location"))
	}
	if got := ts.count(t, &models.Post{}); got != 0 {
		t.Errorf("post rows after delete = %d, want 0", got)
	}
}

func TestAddComment(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.signup(t, "alice")

	if w := ts.do(t, http.MethodPost, "/new/", url.Values{"text": {"discuss"}}, cookies); w.Code != http.StatusFound {
		t.Fatalf("create post: status = %d", w.Code)
	}
	var post models.Post
	if err := ts.gdb.First(&post).Error; err != nil {
		t.Fatalf("post was not stored: %v", err)
	}

	commentPath := fmt.Sprintf("/alice/%d/comment/", post.ID)

	// Empty comment re-renders the detail page with an error, no write
	w := ts.do(t, http.MethodPost, commentPath, url.Values{"text": {"  "}}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty comment: status = %d, want 400", w.Code)
	}
	if got := ts.count(t, &models.Comment{}); got != 0 {
		t.Errorf("empty comment stored %d rows, want 0", got)
	}

	w = ts.do(t, http.MethodPost, commentPath, url.Values{"text": {"nice post"}}, cookies)
	if w.Code != http.StatusFound {
		t.Fatalf("comment: status = %d, want 302", w.Code)
	}
	if got := ts.count(t, &models.Comment{}); got != 1 {
		t.Fatalf("comment rows = %d, want 1", got)
	}

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/alice/%d/", post.ID), nil, nil)
	if !strings.Contains(w.Body.String(), "nice post") {
		t.Error("detail page should show the new comment")
	}
}

func TestDetailNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "alice")
	bobCookies := ts.signup(t, "bob")

	if w := ts.do(t, http.MethodPost, "/new/", url.Values{"text": {"bob's"}}, bobCookies); w.Code != http.StatusFound {
		t.Fatalf("create post: status = %d", w.Code)
	}
	var post models.Post
	if err := ts.gdb.First(&post).Error; err != nil {
		t.Fatalf("post was not stored: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"unknown author", "/nobody/1/"},
		{"unknown post id", "/alice/9999/"},
		{"non-numeric post id", "/alice/abc/"},
		{"post under wrong author", fmt.Sprintf("/alice/%d/", post.ID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, tt.path, nil, nil)
			if w.Code != http.StatusNotFound {
				t.Errorf("GET %s: status = %d, want 404", tt.path, w.Code)
			}
		})
	}

	// Wrong-author lookups have no side effects on the real post
	var after models.Post
	if err := ts.gdb.First(&after, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if after.Visits != 0 {
		t.Errorf("visits = %d after not-found lookups, want 0", after.Visits)
	}
}

func TestIndexPaginationClampsThroughHandler(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.signup(t, "prolific")

	for i := 0; i < 12; i++ {
		form := url.Values{"text": {fmt.Sprintf("post number %d", i)}}
		if w := ts.do(t, http.MethodPost, "/new/", form, cookies); w.Code != http.StatusFound {
			t.Fatalf("create post %d: status = %d", i, w.Code)
		}
	}

	w := ts.do(t, http.MethodGet, "/?page=99", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "page 2 of 2") {
		t.Error("an out-of-range page should clamp to the last page")
	}

	w = ts.do(t, http.MethodGet, "/?page=banana", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "page 1 of 2") {
		t.Error("a non-numeric page should fall back to page 1")
	}
}

func TestGroupPage(t *testing.T) {
	ts := newTestServer(t)

	group := &models.Group{Title: "PoV", Slug: "pov", Description: "points of view"}
	if err := ts.gdb.Create(group).Error; err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	w := ts.do(t, http.MethodGet, "/group/pov/", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "PoV") {
		t.Error("group page should show the group title")
	}

	w = ts.do(t, http.MethodGet, "/group/no-such-group/", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown group: status = %d, want 404", w.Code)
	}
}

func TestUnknownRouteRenders404(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/no/such/route/at/all/", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Page not found") {
		t.Error("custom 404 page should render")
	}
}
