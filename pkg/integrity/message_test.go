package integrity_test

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbitra/pkg/core"
	"github.com/aretw0/arbitra/pkg/integrity"
)

func sampleTransaction() core.Transaction {
	return core.Transaction{
		Sender:   "me",
		Receiver: "also me",
		Amount:   core.NewAmount(12),
		Time:     1500000000000,
	}
}

func sampleMessage(t *testing.T) integrity.Message {
	t.Helper()
	m, err := integrity.Build(core.MessageTypeTransaction, "127.0.0.1", sampleTransaction())
	require.NoError(t, err)
	return m
}

func TestDigest_KnownVector(t *testing.T) {
	assert.Equal(t,
		"5fe5e16f6b9426fb1a6c37b6b41fe3410b55109042f0589b238804dcca3f7662",
		integrity.Digest([]byte(integrity.DefaultOraclePayload)))
	assert.Len(t, integrity.Digest(nil), integrity.DigestLength)
}

func TestBuild_WireFormat(t *testing.T) {
	m := sampleMessage(t)

	data, err := m.Encode()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "transaction_message", data)
}

func TestBuild_DigestCoversBody(t *testing.T) {
	m := sampleMessage(t)

	assert.Equal(t, integrity.Digest(m.Body), m.Header.Hash)
	assert.Equal(t, core.MessageTypeTransaction, m.Header.Type)
	assert.Equal(t, "127.0.0.1", m.Header.From)
	assert.True(t, integrity.Verify(m))

	var tx core.Transaction
	require.NoError(t, m.Decode(&tx))
	assert.Equal(t, "also me", tx.Receiver)
	assert.True(t, tx.Amount.Equal(core.NewAmount(12)))
}

func TestBuild_UnencodableBody(t *testing.T) {
	_, err := integrity.Build("transaction", "127.0.0.1", map[string]any{"c": make(chan int)})
	assert.Error(t, err)
}

func TestVerify_DetectsTampering(t *testing.T) {
	t.Run("body changed", func(t *testing.T) {
		m := sampleMessage(t)
		m.Body = json.RawMessage(`{"sender":"me","receiver":"mallory","amount":12,"time":1500000000000}`)
		assert.False(t, integrity.Verify(m))
	})

	t.Run("hash changed", func(t *testing.T) {
		m := sampleMessage(t)
		m.Header.Hash = integrity.Digest([]byte("something else"))
		assert.False(t, integrity.Verify(m))
	})

	t.Run("whitespace in body", func(t *testing.T) {
		m := sampleMessage(t)
		m.Body = append(json.RawMessage(" "), m.Body...)
		assert.False(t, integrity.Verify(m))
	})
}

func TestParse(t *testing.T) {
	valid, err := sampleMessage(t).Encode()
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", string(valid), false},
		{"null body", `{"header":{"type":"x","hash":"h","from":"f"},"body":null}`, false},
		{"not json", `Hash this string please`, true},
		{"missing header", `{"body":{}}`, true},
		{"missing body", `{"header":{"type":"transaction","hash":"h","from":"f"}}`, true},
		{"array", `[1,2]`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := integrity.Parse([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidMessage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParse_PreservesBodyBytes(t *testing.T) {
	data := []byte(`{"header":{"type":"transaction","hash":"x","from":"f"},"body":{"b": 1,  "a":2}}`)

	m, err := integrity.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, `{"b": 1,  "a":2}`, string(m.Body))
}

func TestBuild_DoesNotEscapeHTML(t *testing.T) {
	m, err := integrity.Build("note", "127.0.0.1", map[string]string{"text": "a<b & c>d"})
	require.NoError(t, err)

	want := `{"text":"a<b & c>d"}`
	assert.Equal(t, want, string(m.Body))
	assert.Equal(t, integrity.Digest([]byte(want)), m.Header.Hash)
}

func TestEncode_RelayKeepsDigest(t *testing.T) {
	body := `{"sender":"a<b","receiver":"c&d>e","amount":1,"time":1}`
	wire := `{"header":{"type":"transaction","hash":"` + integrity.Digest([]byte(body)) +
		`","from":"10.0.0.2"},"body":` + body + `}`

	received, err := integrity.Parse([]byte(wire))
	require.NoError(t, err)
	require.True(t, integrity.Verify(received))

	relayed, err := received.Encode()
	require.NoError(t, err)
	assert.Equal(t, wire, string(relayed))

	again, err := integrity.Parse(relayed)
	require.NoError(t, err)
	assert.True(t, integrity.Verify(again))
}
