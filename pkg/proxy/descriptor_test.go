package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := []string{
		"1.2.3.4:1080:alice:secret:socks5",
		"1.2.3.4:1080",
		"proxy.example.com:8080:bob:pw:http",
		"10.0.0.1:443:u:p:https",
		"10.0.0.1:1080:u:p:socks4",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			d, ok := Parse(in)
			require.True(t, ok)
			assert.Equal(t, in, d.String())
		})
	}
}

func TestParse_Fields(t *testing.T) {
	d, ok := Parse("5.6.7.8|3128|carol|hunter2|HTTP")
	require.True(t, ok)
	assert.Equal(t, &Descriptor{
		Host:     "5.6.7.8",
		Port:     3128,
		User:     "carol",
		Password: "hunter2",
		Method:   HTTP,
	}, d)

	d, ok = Parse("5.6.7.8:3128:carol")
	require.True(t, ok)
	assert.Equal(t, "carol", d.User)
	assert.Empty(t, d.Password)
	assert.Equal(t, SOCKS5, d.Method)
	assert.Equal(t, "5.6.7.8:3128:carol::socks5", d.String())
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "bad", "1.2.3.4:notaport", "1.2.3.4:", ":::"} {
		t.Run(in, func(t *testing.T) {
			d, ok := Parse(in)
			assert.False(t, ok)
			assert.Nil(t, d)
		})
	}
}

func TestDescriptor_ChromeFlag(t *testing.T) {
	assert.Equal(t, "socks5://1.2.3.4:1080", New("1.2.3.4", 1080).ChromeFlag())

	d, _ := Parse("proxy.local:8080:u:p:http")
	assert.Equal(t, "http://proxy.local:8080", d.ChromeFlag())

	assert.Equal(t, "socks5://[::1]:1080", (&Descriptor{Host: "::1", Port: 1080}).ChromeFlag())
}

func TestDescriptor_ExtensionConfig(t *testing.T) {
	t.Run("socks", func(t *testing.T) {
		d, _ := Parse("1.2.3.4:1080:alice:secret:socks4")
		doc, err := d.ExtensionConfig()
		require.NoError(t, err)
		require.True(t, gjson.Valid(doc))

		assert.Equal(t, "alice", gjson.Get(doc, "auth.user").String())
		assert.Equal(t, "secret", gjson.Get(doc, "auth.pass").String())
		assert.Equal(t, "socks4", gjson.Get(doc, "socks_type").String())
		assert.Equal(t, "1.2.3.4", gjson.Get(doc, "socks_host").String())
		assert.Equal(t, int64(1080), gjson.Get(doc, "socks_port").Int())
		assert.Equal(t, "file://", gjson.Get(doc, "pac_type").String())
		assert.Equal(t, "Whitelist", gjson.Get(doc, "rules_mode").String())
		assert.Equal(t, "singleProxy", gjson.Get(doc, "proxy_rule").String())
		assert.True(t, gjson.Get(doc, "bypasslist").Exists())
		assert.True(t, gjson.Get(doc, "internal").Exists())
		assert.False(t, gjson.Get(doc, "http_host").Exists())
	})

	t.Run("http", func(t *testing.T) {
		d, _ := Parse("proxy.local:8080:u:p:http")
		doc, err := d.ExtensionConfig()
		require.NoError(t, err)

		assert.Equal(t, "proxy.local", gjson.Get(doc, "http_host").String())
		assert.Equal(t, int64(8080), gjson.Get(doc, "http_port").Int())
		assert.Equal(t, "socks5", gjson.Get(doc, "socks_type").String())
		assert.False(t, gjson.Get(doc, "socks_host").Exists())
	})

	t.Run("https", func(t *testing.T) {
		d, _ := Parse("secure.local:443:u:p:https")
		doc, err := d.ExtensionConfig()
		require.NoError(t, err)

		assert.Equal(t, "secure.local", gjson.Get(doc, "https_host").String())
		assert.Equal(t, int64(443), gjson.Get(doc, "https_port").Int())
	})

	t.Run("no credentials", func(t *testing.T) {
		doc, err := New("1.2.3.4", 1080).ExtensionConfig()
		require.NoError(t, err)
		assert.Equal(t, "", gjson.Get(doc, "auth.user").String())
		assert.Equal(t, "1.2.3.4", gjson.Get(doc, "socks_host").String())
	})

	t.Run("unknown method", func(t *testing.T) {
		d, _ := Parse("1.2.3.4:1080:u:p:ftp")
		_, err := d.ExtensionConfig()
		assert.Error(t, err)
	})
}

func TestParse_EmptyPasswordRoundTrip(t *testing.T) {
	d, ok := Parse("5.6.7.8:3128:carol::http")
	require.True(t, ok)
	assert.Empty(t, d.Password)
	assert.Equal(t, HTTP, d.Method)
	assert.Equal(t, "5.6.7.8:3128:carol::http", d.String())
}
