package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit 表示长度值的原始单位。
type Unit int

const (
	UnitNone    Unit = iota // 无单位数值，例如百分比
	UnitMM                  // 毫米
	UnitCM                  // 厘米
	UnitIN                  // 英寸
	UnitPT                  // 点
	UnitMil                 // 千分之一英寸
	UnitPercent             // 较短边的百分比
)

// 物理单位换算基准：1in = 25.4mm = 1000mil = 72pt。
const (
	MmPerInch   = 25.4
	MilsPerInch = 1000.0
	PtPerInch   = 72.0

	PtToMm = MmPerInch / PtPerInch
	MmToPt = 1.0 / PtToMm
)

// MMToMils 将毫米换算为 mil。
func MMToMils(mm float64) float64 { return mm / MmPerInch * MilsPerInch }

// MilsToPt 将 mil 换算为 pt。
func MilsToPt(mils float64) float64 { return mils / MilsPerInch * PtPerInch }

// MMToPt 经由 mil 将毫米换算为 pt。
func MMToPt(mm float64) float64 { return MilsToPt(MMToMils(mm)) }

// PtToMM 将 pt 换算为毫米。
func PtToMM(pt float64) float64 { return pt * PtToMm }

// Length 是带单位的长度，保留原始单位。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToMM 将长度换算为毫米；百分比与无单位数值原样返回。
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * MmPerInch
	case UnitPT:
		return l.Value * PtToMm
	case UnitMil:
		return l.Value / MilsPerInch * MmPerInch
	default:
		return l.Value
	}
}

// ToPT 将长度换算为 pt。
func (l Length) ToPT() float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value
	case UnitMil:
		return MilsToPt(l.Value)
	case UnitNone, UnitPercent:
		return l.Value
	default:
		return MMToPt(l.ToMM())
	}
}

// ParseRawLengthStr 解析带单位的长度字符串，保留原始单位。无法解析时返回零值。
func ParseRawLengthStr(value string) Length {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return Length{}
	}
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mil", UnitMil}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"%", UnitPercent}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}
	}
	return Length{Value: f, Unit: unit}
}

// ParseBorder 将 "5mm"、"0.5in"、"3%" 这类写法转换为边框配置。
// 无单位数值按毫米处理；空字符串得到默认配置。
func ParseBorder(value string) (BorderConfig, error) {
	if strings.TrimSpace(value) == "" {
		return BorderConfig{Mode: BorderMM}, nil
	}
	l := ParseRawLengthStr(value)
	if l.IsZero() && !strings.HasPrefix(strings.TrimSpace(value), "0") {
		return BorderConfig{}, fmt.Errorf("无法解析边框尺寸：%s", value)
	}
	if l.Value < 0 {
		return BorderConfig{}, fmt.Errorf("边框尺寸不能为负数：%s", value)
	}
	if l.Unit == UnitPercent {
		return BorderConfig{Mode: BorderPercent, Value: l.Value}, nil
	}
	return BorderConfig{Mode: BorderMM, Value: l.ToMM()}, nil
}
