package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucidia/internal/config"
	"lucidia/internal/controls"
)

func testCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	root := newRootCmd(v, log.New(&bytes.Buffer{}))
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestListResolvesDirectories(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.png", "a.jpg", "readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}

	out, err := testCommand(t, "list", "first.png", dir)
	require.NoError(t, err)
	assert.Equal(t,
		"1\tfirst.png\n2\t"+filepath.Join(dir, "a.jpg")+"\n3\t"+filepath.Join(dir, "b.png")+"\n",
		out)
}

func TestListWithoutImages(t *testing.T) {
	_, err := testCommand(t, "list")
	assert.ErrorIs(t, err, config.ErrNoImages)
}

func TestListReadsConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(file, []byte("images: [one.png, two.png]\n"), 0o644))

	out, err := testCommand(t, "list", "--config", file)
	require.NoError(t, err)
	assert.Equal(t, "1\tone.png\n2\ttwo.png\n", out)
}

func TestEveryFlagKeyIsBound(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	root := newRootCmd(v, log.New(&bytes.Buffer{}))

	require.NoError(t, root.PersistentFlags().Set("workers", "5"))
	require.NoError(t, root.PersistentFlags().Set("fade-rate", "0.02"))
	assert.Equal(t, 5, v.GetInt("decode_workers"))
	assert.Equal(t, 0.02, v.GetFloat64("fade_rate"))
	for key, name := range flagKeys {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag for %s", key)
	}
}

func TestBindFlagsRejectsMissingFlag(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("workers", 1, "")

	err := bindFlags(viper.New(), fs, map[string]string{"decode_workers": "wokers"})
	assert.ErrorContains(t, err, "--wokers")
}

func TestKeyAction(t *testing.T) {
	cases := map[glfw.Key]controls.Action{
		glfw.Key1:      {Kind: controls.Select, Index: 0},
		glfw.Key9:      {Kind: controls.Select, Index: 8},
		glfw.KeyKP3:    {Kind: controls.Select, Index: 2},
		glfw.KeyRight:  {Kind: controls.Next},
		glfw.KeySpace:  {Kind: controls.Next},
		glfw.KeyLeft:   {Kind: controls.Prev},
		glfw.KeyF11:    {Kind: controls.ToggleFullscreen},
		glfw.KeyH:      {Kind: controls.ToggleHUD},
		glfw.KeyEscape: {Kind: controls.Quit},
		glfw.Key0:      {},
		glfw.KeyA:      {},
	}
	for key, want := range cases {
		assert.Equal(t, want, keyAction(key), "key %d", key)
	}
}

func TestAboutLines(t *testing.T) {
	v := viper.New()
	s := &config.Settings{Profile: "single", Images: []string{"a.png", "b.png"}, FadeRate: 0.02}

	lines := aboutLines(v, s)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "single profile")
	assert.Equal(t, "2 images, fade over 50 frames", lines[1])
	assert.Equal(t, "Settings: built-in defaults", lines[2])

	assert.Contains(t, aboutLines(v, nil)[1], "No images")
}

func TestImageFolder(t *testing.T) {
	assert.Empty(t, imageFolder(nil))

	dir := t.TempDir()
	got := imageFolder(&config.Settings{Images: []string{filepath.Join(dir, "x.png")}})
	assert.Equal(t, dir, got)
}
