package discovery_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubtedu/yanshee-go/pkg/discovery"
)

func TestRobotTXTRoundTrip(t *testing.T) {
	info := &discovery.RobotInfo{
		Name:    "Yanshee_8F83",
		Model:   "yanshee",
		SDK:     "01",
		UDPPort: 20001,
	}

	strs := discovery.TXTRecordsToStrings(discovery.EncodeRobotTXT(info))
	assert.Equal(t, []string{"model=yanshee", "name=Yanshee_8F83", "port=20001", "sdk=01"}, strs)

	decoded, err := discovery.DecodeRobotTXT(discovery.StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, info, decoded)
}

func TestDecodeRobotTXTInvalidPort(t *testing.T) {
	for _, p := range []string{"abc", "0", "70000"} {
		_, err := discovery.DecodeRobotTXT(discovery.TXTRecordMap{"port": p})
		assert.ErrorIs(t, err, discovery.ErrInvalidTXT, "port=%s", p)
	}
}

func TestStringsToTXTRecordsFlags(t *testing.T) {
	txt := discovery.StringsToTXTRecords([]string{"name=a=b", "beta", ""})
	assert.Equal(t, "a=b", txt["name"])
	v, ok := txt["beta"]
	assert.True(t, ok)
	assert.Empty(t, v)
	assert.Len(t, txt, 2)
}

func TestValidateInstanceName(t *testing.T) {
	assert.NoError(t, discovery.ValidateInstanceName("Yanshee_8F83"))
	assert.ErrorIs(t, discovery.ValidateInstanceName(""), discovery.ErrInstanceNameTooLong)
	assert.ErrorIs(t, discovery.ValidateInstanceName(strings.Repeat("x", 64)), discovery.ErrInstanceNameTooLong)
}

func TestMDNSAdvertiserRejectsBadName(t *testing.T) {
	adv := discovery.NewMDNSAdvertiser(discovery.MDNSConfig{})
	defer adv.Stop()

	err := adv.Advertise(&discovery.RobotInfo{Name: strings.Repeat("y", 80)})
	assert.ErrorIs(t, err, discovery.ErrInstanceNameTooLong)
}
