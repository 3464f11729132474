package gt06

// Unknown is returned by every table lookup that falls outside its table.
const Unknown = "Unknown"

var voltageLevels = [...]string{
	"No Power",
	"Extremely Low",
	"Very Low",
	"Low",
	"Medium",
	"High",
	"Very High",
}

var gsmSignalLevels = [...]string{
	"No Signal",
	"Extremely Weak",
	"Weak",
	"Good",
	"Strong",
}

var alarmStatuses = map[byte]string{
	AlarmNormal:   "Normal",
	AlarmSOS:      "SOS",
	AlarmPowerCut: "Power Cut",
	AlarmShock:    "Shock",
	AlarmFenceIn:  "Fence In",
	AlarmFenceOut: "Fence Out",
}

var languages = map[byte]string{
	0x01: "Chinese",
	0x02: "English",
}

// VoltageLevel names the battery voltage grade reported by the device.
func VoltageLevel(level byte) string {
	if int(level) >= len(voltageLevels) {
		return Unknown
	}
	return voltageLevels[level]
}

// GSMSignal names the GSM signal strength grade reported by the device.
func GSMSignal(level byte) string {
	if int(level) >= len(gsmSignalLevels) {
		return Unknown
	}
	return gsmSignalLevels[level]
}

// AlarmStatus names an alarm/status code.
func AlarmStatus(code byte) string {
	if name, ok := alarmStatuses[code]; ok {
		return name
	}
	return Unknown
}

// Language names the language byte of heartbeat and alarm packets.
func Language(code byte) string {
	if name, ok := languages[code]; ok {
		return name
	}
	return Unknown
}
