package pemeta

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFullModule(t *testing.T) {
	block := buildVersionBlock([][2]string{
		{"ProductName", "Acme Reverb"},
		{"CompanyName", "Acme Audio"},
		{"ProductVersion", "3.2.1"},
		{"FileDescription", "Acme Reverb VST3 module"},
	})
	buf := buildPE(machineAMD64, true, buildVersionResource(block),
		[]byte("\x00GetPluginFactory\x00"))

	md, err := Read(buf)
	require.NoError(t, err)

	assert.True(t, md.IsPE)
	require.NotNil(t, md.Is64Bit)
	assert.True(t, *md.Is64Bit)
	assert.Equal(t, "x64 (AMD64)", md.MachineType)
	assert.Equal(t, "3.2.1", md.VersionInfo.Lookup("ProductVersion"))
	assert.Equal(t, "Acme Audio", md.VersionInfo.Lookup("CompanyName"))
	assert.Equal(t, "3.2.1.0", md.FixedProductVersion)
	assert.True(t, md.HasVST3Signature)
	assert.False(t, md.HasVSTSignature)
	assert.False(t, md.HasCLAPSignature)
}

func TestRead32BitVST2(t *testing.T) {
	buf := buildPE(machineI386, false, nil, []byte("VSTPluginMain"))

	md, err := Read(buf)
	require.NoError(t, err)

	require.NotNil(t, md.Is64Bit)
	assert.False(t, *md.Is64Bit)
	assert.Equal(t, "x86", md.MachineType)
	assert.True(t, md.HasVSTSignature)
	assert.Equal(t, 0, md.VersionInfo.Len(), "module without resources must report an empty table")
}

func TestReadNotPE(t *testing.T) {
	if _, err := Read([]byte("\x7fELF romp")); !errors.Is(err, ErrNotPEFile) {
		t.Fatalf("Read = %v, want ErrNotPEFile", err)
	}
}

// A valid PE whose resource table RVA resolves nowhere still succeeds,
// with the version table empty: degraded, not failed.
func TestReadBadResourceRVADegrades(t *testing.T) {
	buf := buildPE(machineAMD64, true, buildVersionResource(buildVersionBlock(nil)), nil)
	optOff := testPEOffset + 24
	putU32(buf, optOff+112+resourceTableIndex*8, 0x00900000)

	md, err := Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, md.VersionInfo.Len())
}

// Version data entry whose size overruns the file: decode what is there.
func TestReadOversizedVersionData(t *testing.T) {
	block := buildVersionBlock([][2]string{{"ProductName", "Acme Reverb"}})
	rsrc := buildVersionResource(block)
	putU32(rsrc, 76, uint32(len(block))+4096) // data entry size field
	buf := buildPE(machineAMD64, true, rsrc, nil)

	md, err := Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "Acme Reverb", md.VersionInfo.Lookup("ProductName"))
}

// Parsing the same buffer twice yields identical metadata.
func TestReadIdempotent(t *testing.T) {
	block := buildVersionBlock([][2]string{
		{"ProductName", "Acme Reverb"},
		{"FileVersion", "1.0.0"},
	})
	buf := buildPE(machineAMD64, true, buildVersionResource(block),
		[]byte("VSTPluginMain"))

	first, err := Read(buf)
	require.NoError(t, err)
	second, err := Read(buf)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	if !bytes.Equal(a, b) {
		t.Fatalf("records differ:\n%s\n%s", a, b)
	}
}

// Whole-image truncation fuzz: no prefix of a valid module may panic or
// read out of range; only header-level prefixes may fail, and only with
// the two fatal errors.
func TestReadTruncationFuzz(t *testing.T) {
	block := buildVersionBlock([][2]string{{"ProductName", "Acme Reverb"}})
	buf := buildPE(machineAMD64, true, buildVersionResource(block), nil)

	for n := 0; n <= len(buf); n++ {
		md, err := Read(buf[:n])
		if err != nil {
			if !errors.Is(err, ErrNotPEFile) && !errors.Is(err, ErrTruncatedHeader) {
				t.Fatalf("prefix %d: unexpected error %v", n, err)
			}
			continue
		}
		require.NotNil(t, md, "prefix %d", n)
	}
}

func TestVersionInfoJSONOrder(t *testing.T) {
	info := NewVersionInfo()
	info.Set("ZKey", "1")
	info.Set("AKey", "2")
	out, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Equal(t, `{"ZKey":"1","AKey":"2"}`, string(out))
}
