package template

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tFixedTime = time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)
	tClock     = ClockFunc(func() time.Time { return tFixedTime })
	tIDs       = IDGeneratorFunc(func() string { return "0f8fad5b-d9cb-469f-a165-70867728950e" })
)

func TestRender(t *testing.T) {
	testdata := []struct {
		Scenario string
		Template string
		Attrs    Attributes
		Path     string
	}{
		{
			Scenario: "Literal Round Trip",
			Template: "a/b/c",
			Path:     "a/b/c",
		},
		{
			Scenario: "Profile Image",
			Template: "#folder/#mimeFolder/#fileName.#fileExtension",
			Attrs:    Attributes{FileName: "profileImage", FileExtension: "png", Folder: "app", Mime: "image/png"},
			Path:     "app/images/original/profileImage.png",
		},
		{
			Scenario: "Full File Name",
			Template: "/myapp/#mimeFolder/#file",
			Attrs:    Attributes{FileName: "smile", FileExtension: "jpg", Mime: "image/jpg"},
			Path:     "/myapp/images/original/smile.jpg",
		},
		{
			Scenario: "Data Mime Folder",
			Template: "/#mimeFolder/#file",
			Attrs:    Attributes{FileName: "report", FileExtension: "pdf", Mime: "application/pdf"},
			Path:     "/data/report.pdf",
		},
		{
			Scenario: "Mime",
			Template: "/#mime",
			Attrs:    Attributes{Mime: "text/plain"},
			Path:     "/text/plain",
		},
		{
			Scenario: "Date Without Leading Zero",
			Template: "/#year/#month/#day/#timestamp",
			Path:     "/2024/3/5/07:08:09",
		},
		{
			Scenario: "Random Identifier",
			Template: "/#uuid.#fileExtension",
			Attrs:    Attributes{FileExtension: "bin"},
			Path:     "/0f8fad5b-d9cb-469f-a165-70867728950e.bin",
		},
		{
			Scenario: "Unicode Literal",
			Template: "/bilder/#fileName-größe",
			Attrs:    Attributes{FileName: "katze"},
			Path:     "/bilder/katze-größe",
		},
	}

	for _, tt := range testdata {
		t.Run(tt.Scenario, func(t *testing.T) {
			tmpl, err := Compile(tt.Template)
			require.NoError(t, err)

			path, err := tmpl.Render(tt.Attrs, tClock, tIDs)
			require.NoError(t, err)
			assert.Equal(t, tt.Path, path)
		})
	}
}

func TestRenderMissingAttribute(t *testing.T) {
	testdata := []struct {
		Scenario string
		Template string
		Attrs    Attributes
		Alias    Alias
		Err      error
	}{
		{"Folder", "#folder", Attributes{FileName: "a", FileExtension: "b", Mime: "c"}, AliasFolder, ErrFolderNotProvided},
		{"File Without Name", "#file", Attributes{FileExtension: "png"}, AliasFile, ErrFileNameNotProvided},
		{"File Without Extension", "#file", Attributes{FileName: "a"}, AliasFile, ErrFileExtensionNotProvided},
		{"File Name", "/x/#fileName", Attributes{Folder: "f"}, AliasFileName, ErrFileNameNotProvided},
		{"File Extension", "#fileExtension", Attributes{FileName: "a"}, AliasFileExtension, ErrFileExtensionNotProvided},
		{"Mime", "#mime", Attributes{}, AliasMime, ErrMimeNotProvided},
		{"Mime Folder", "#mimeFolder", Attributes{Folder: "f"}, AliasMimeFolder, ErrMimeFolderNotProvided},
	}

	for _, tt := range testdata {
		t.Run(tt.Scenario, func(t *testing.T) {
			tmpl, err := Compile(tt.Template)
			require.NoError(t, err)

			path, err := tmpl.Render(tt.Attrs, tClock, tIDs)
			require.Error(t, err)
			assert.Empty(t, path)
			assert.ErrorIs(t, err, tt.Err)

			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, tt.Alias, renderErr.Alias)
		})
	}
}

func TestRenderInvalidEncoding(t *testing.T) {
	tmpl, err := Compile("/#fileName")
	require.NoError(t, err)

	_, err = tmpl.Render(Attributes{FileName: "\xff\xfe"}, tClock, tIDs)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestMimeFolder(t *testing.T) {
	testdata := []struct {
		Mime   string
		Folder string
		OK     bool
	}{
		{"image/png", "images/original", true},
		{"IMAGE/JPEG", "images/original", true},
		{"Image", "images/original", true},
		{"imagery/x", "images/original", true},
		{"application/json", "data", true},
		{"text/image", "data", true},
		{"", "", false},
	}

	for _, tt := range testdata {
		t.Run(tt.Mime, func(t *testing.T) {
			folder, ok := MimeFolder(tt.Mime)
			assert.Equal(t, tt.OK, ok)
			assert.Equal(t, tt.Folder, folder)
		})
	}
}

func TestRenderReadsClockOnce(t *testing.T) {
	calls := 0
	clock := ClockFunc(func() time.Time {
		calls++
		return tFixedTime.Add(time.Duration(calls) * 24 * time.Hour)
	})

	tmpl, err := Compile("/#day/#day/#timestamp")
	require.NoError(t, err)

	path, err := tmpl.Render(Attributes{}, clock, tIDs)
	require.NoError(t, err)
	assert.Equal(t, "/6/6/07:08:09", path)
	assert.Equal(t, 1, calls)
}

func TestRenderUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	clock := ClockFunc(func() time.Time {
		return time.Date(2024, time.January, 1, 5, 0, 0, 0, loc)
	})

	tmpl, err := Compile("#year-#month-#day #timestamp")
	require.NoError(t, err)

	path, err := tmpl.Render(Attributes{}, clock, tIDs)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31 19:00:00", path)
}

func TestRenderConcurrent(t *testing.T) {
	b, err := NewPathBuilder("/#folder/#uuid/#file")
	require.NoError(t, err)

	attrs := Attributes{FileName: "a", FileExtension: "txt", Folder: "f"}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = map[string]struct{}{}
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := b.Build(attrs)
			assert.NoError(t, err)
			mu.Lock()
			paths[p] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, paths, 32)
}

func TestNewPathBuilder(t *testing.T) {
	b, err := NewPathBuilder("/#folder/#file", WithClock(tClock), WithIDGenerator(tIDs))
	require.NoError(t, err)
	assert.Equal(t, "/#folder/#file", b.Template().String())

	p, err := b.Build(Attributes{FileName: "a", FileExtension: "b", Folder: "c"})
	require.NoError(t, err)
	assert.Equal(t, "/c/a.b", p)

	_, err = NewPathBuilder("/#nope")
	assert.ErrorIs(t, err, ErrInvalidAlias)

	_, err = NewPathBuilder("/#file", WithClock(nil))
	assert.Error(t, err)
}
