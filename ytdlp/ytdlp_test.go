package ytdlp

import (
	"context"
	"testing"

	"clipwebapi/cmdexec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	runFunc func(ctx context.Context, name string, args ...string) (cmdexec.Result, error)
	args    []string
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) (cmdexec.Result, error) {
	m.args = args
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args...)
	}
	return cmdexec.Result{}, nil
}

func TestDownloadArgs(t *testing.T) {
	req := DownloadRequest{
		URL:       "https://www.youtube.com/watch?v=abc",
		StartTime: "00:00:10.000",
		EndTime:   "00:00:20.000",
		Output:    "/work/clip-1.mp4",
	}

	t.Run("default selector without subtitles", func(t *testing.T) {
		args := DownloadArgs(req, nil)
		assert.Equal(t, []string{
			"-f", DefaultFormatSelector,
			"--download-sections", "*00:00:10.000-00:00:20.000",
			"-o", "/work/clip-1.mp4",
			"--merge-output-format", "mp4",
			"--no-warnings",
			"--", "https://www.youtube.com/watch?v=abc",
		}, args)
	})

	t.Run("explicit format with subtitles and extra args", func(t *testing.T) {
		r := req
		r.FormatID = "137+bestaudio[ext=m4a]"
		r.Subtitles = true
		args := DownloadArgs(r, []string{"--cookies", "c.txt"})

		assert.Equal(t, "137+bestaudio[ext=m4a]", args[1])
		assert.Contains(t, args, "--write-auto-subs")
		assert.Equal(t, []string{"--sub-lang", "en", "--sub-format", "vtt", "--cookies", "c.txt", "--", req.URL}, args[len(args)-8:])
	})

	t.Run("option-like url stays positional", func(t *testing.T) {
		r := req
		r.URL = "--exec=touch /tmp/owned"
		args := DownloadArgs(r, nil)

		assert.Equal(t, "-f", args[0])
		assert.Equal(t, []string{"--", "--exec=touch /tmp/owned"}, args[len(args)-2:])
	})
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://www.youtube.com/watch?v=abc"))
	assert.NoError(t, ValidateURL("http://youtu.be/abc"))

	for _, bad := range []string{
		"--exec=touch /tmp/owned",
		"-o/etc/passwd",
		"file:///etc/passwd",
		"youtube.com/watch?v=abc",
		"https://",
		"",
	} {
		assert.Error(t, ValidateURL(bad), bad)
	}
}

func TestSubtitlePath(t *testing.T) {
	assert.Equal(t, "/work/clip-1.en.vtt", SubtitlePath("/work/clip-1.mp4"))
}

func TestSelectFormats(t *testing.T) {
	formats := []Format{
		{FormatID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a"},
		{FormatID: "sb0", Ext: "mhtml", VCodec: "none", ACodec: "none"},
		{FormatID: "18", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 360, FPS: 30},
		{FormatID: "136", Ext: "mp4", VCodec: "avc1", ACodec: "none", Height: 720, FPS: 30},
		{FormatID: "247", Ext: "webm", VCodec: "vp9", ACodec: "none", Height: 720, FPS: 30},
		{FormatID: "299", Ext: "mp4", VCodec: "avc1", ACodec: "none", Height: 1080, FPS: 60},
		{FormatID: "399", Ext: "mkv", VCodec: "av01", ACodec: "none", Height: 1080, FPS: 30},
	}

	got := SelectFormats(formats)
	assert.Equal(t, []FormatOption{
		{FormatID: "299+bestaudio[ext=m4a]", Label: "1080p60"},
		{FormatID: "136+bestaudio[ext=m4a]", Label: "720p"},
		{FormatID: "18", Label: "360p"},
	}, got)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "480p", Label(Format{Height: 480, FPS: 25}))
	assert.Equal(t, "1080p59.94", Label(Format{Height: 1080, FPS: 59.94}))
}

func TestClient_Formats(t *testing.T) {
	runner := &mockRunner{
		runFunc: func(ctx context.Context, name string, args ...string) (cmdexec.Result, error) {
			return cmdexec.Result{Stdout: `{"title":"Talk","thumbnail":"https://i.ytimg.com/t.jpg","formats":[
				{"format_id":"22","ext":"mp4","vcodec":"avc1","acodec":"mp4a","height":720,"fps":null}]}`}, nil
		},
	}
	c := NewClient("yt-dlp", []string{"--proxy", "http://p"}, runner)

	list, err := c.Formats(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "Talk", list.Title)
	assert.Equal(t, "https://i.ytimg.com/t.jpg", list.Thumbnail)
	assert.Equal(t, []FormatOption{{FormatID: "22", Label: "720p"}}, list.Formats)
	assert.Equal(t, []string{"-j", "--no-warnings", "--proxy", "http://p", "--", "https://youtu.be/abc"}, runner.args)
}

func TestClient_Formats_RejectsOptionURL(t *testing.T) {
	runner := &mockRunner{}
	_, err := NewClient("yt-dlp", nil, runner).Formats(context.Background(), "--exec=touch /tmp/owned")

	assert.Error(t, err)
	assert.Nil(t, runner.args, "yt-dlp must not be started")
}

func TestClient_Formats_BadOutput(t *testing.T) {
	runner := &mockRunner{
		runFunc: func(ctx context.Context, name string, args ...string) (cmdexec.Result, error) {
			return cmdexec.Result{Stdout: `not json`}, nil
		},
	}
	_, err := NewClient("yt-dlp", nil, runner).Formats(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrMetadata)

	runner.runFunc = func(ctx context.Context, name string, args ...string) (cmdexec.Result, error) {
		return cmdexec.Result{Stdout: `{"title":"x"}`}, nil
	}
	_, err = NewClient("yt-dlp", nil, runner).Formats(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrMetadata)
}

func TestClient_Download(t *testing.T) {
	runner := &mockRunner{
		runFunc: func(ctx context.Context, name string, args ...string) (cmdexec.Result, error) {
			return cmdexec.Result{ExitCode: 1}, &cmdexec.ExitError{Name: name, ExitCode: 1, Stderr: "ERROR: Video unavailable"}
		},
	}
	err := NewClient("yt-dlp", nil, runner).Download(context.Background(), DownloadRequest{URL: "u", Output: "o.mp4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yt-dlp exited with code 1. Details: ERROR: Video unavailable")
}
