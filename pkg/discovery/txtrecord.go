package discovery

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXT record keys robots advertise alongside the DNS-SD instance.
const (
	TXTKeyName    = "name"  // Robot name (defaults to the instance name)
	TXTKeyModel   = "model" // "yanshee" or "alpha1x"
	TXTKeySDK     = "sdk"   // Wire protocol version ("01")
	TXTKeyUDPPort = "port"  // Command port (default 20001)
)

// MaxInstanceNameLen is the DNS label limit.
const MaxInstanceNameLen = 63

// TXT errors.
var (
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrInvalidTXT          = errors.New("invalid TXT record")
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// RobotInfo is the TXT payload of a robot advertisement.
type RobotInfo struct {
	Name    string
	Model   string
	SDK     string
	UDPPort int
}

// EncodeRobotTXT creates TXT records for a robot advertisement.
func EncodeRobotTXT(info *RobotInfo) TXTRecordMap {
	txt := TXTRecordMap{TXTKeyName: info.Name}
	if info.Model != "" {
		txt[TXTKeyModel] = info.Model
	}
	if info.SDK != "" {
		txt[TXTKeySDK] = info.SDK
	}
	if info.UDPPort != 0 {
		txt[TXTKeyUDPPort] = strconv.Itoa(info.UDPPort)
	}
	return txt
}

// DecodeRobotTXT parses robot TXT records. All keys are optional.
func DecodeRobotTXT(txt TXTRecordMap) (*RobotInfo, error) {
	info := &RobotInfo{
		Name:  txt[TXTKeyName],
		Model: txt[TXTKeyModel],
		SDK:   txt[TXTKeySDK],
	}
	if p, ok := txt[TXTKeyUDPPort]; ok {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXT, TXTKeyUDPPort, p)
		}
		info.UDPPort = port
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
