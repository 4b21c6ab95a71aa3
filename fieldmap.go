package fvemon

// ValueKind declares how a field map entry's extracted JSON value is typed.
//
// The kind is metadata for consumers and a type contract for the parser;
// no scaling or conversion is ever derived from it.
type ValueKind string

const (
	// KindNumber is a plain numeric reading (power, energy, temperature...).
	KindNumber ValueKind = "number"

	// KindPercent is a numeric reading expressed in percent (0-100 by
	// convention; the parser does not enforce the range).
	KindPercent ValueKind = "percent"

	// KindString is an enumeration-style string reading (e.g. a connector
	// state reported by the charger).
	KindString ValueKind = "string"
)

// Metric keys for the core readings of the FVE monitor. Every successful
// snapshot contains all of them.
const (
	TotalConsumptionW = "total_consumption_w"
	GridPowerW        = "grid_power_w"
	PVPowerW          = "pv_power_w"
	BatterySOCPercent = "battery_soc_percent"
	BatteryVoltageV   = "battery_voltage_v"
	BatteryCurrentA   = "battery_current_a"
	DailyPurchaseKWh  = "daily_purchase_kwh"
	DailyChargeKWh    = "daily_charge_kwh"
	DailyDischargeKWh = "daily_discharge_kwh"
	InverterTempC     = "inverter_temp_c"
)

// Metric keys for attribute readings the endpoint may or may not report.
// A snapshot is valid without them.
const (
	BatteryPowerW   = "battery_power_w"
	InverterOutputW = "inverter_output_w"
	WifiPercent     = "wifi_percent"
	UserName        = "user_name"
	LastUpdate      = "last_update"
	TimeOfDay       = "time_of_day"
	Charger2Status  = "charger_2_status"
)

// Field is one entry of the field map: it binds an output metric key to the
// nested JSON path it is read from, together with its unit and value kind.
//
// Path elements are object keys walked in order, e.g. ["baterie", "soc"]
// reads {"baterie": {"soc": 87}}. Fields are purely declarative and carry
// no behavior.
type Field struct {
	// Key is the stable output name of the metric.
	Key string

	// Path is the sequence of JSON object keys leading to the value.
	Path []string

	// Unit is the unit of measurement, informational only.
	Unit string

	// Kind is the expected value kind at the end of the path.
	Kind ValueKind

	// Optional marks attribute fields whose absence does not fail a parse.
	// A present optional field must still match its declared kind.
	Optional bool
}

// fields is the single source of truth for what the monitor extracts.
// Order is preserved everywhere a snapshot is enumerated.
var fields = []Field{
	{Key: TotalConsumptionW, Path: []string{"spotrebaCelkem"}, Unit: "W", Kind: KindNumber},
	{Key: GridPowerW, Path: []string{"vykonSit"}, Unit: "W", Kind: KindNumber},
	{Key: PVPowerW, Path: []string{"vykonFV"}, Unit: "W", Kind: KindNumber},
	{Key: BatterySOCPercent, Path: []string{"baterie", "soc"}, Unit: "%", Kind: KindPercent},
	{Key: BatteryVoltageV, Path: []string{"baterie", "napeti"}, Unit: "V", Kind: KindNumber},
	{Key: BatteryCurrentA, Path: []string{"baterie", "proud"}, Unit: "A", Kind: KindNumber},
	{Key: DailyPurchaseKWh, Path: []string{"statistika", "denni", "NakupEnergie"}, Unit: "kWh", Kind: KindNumber},
	{Key: DailyChargeKWh, Path: []string{"statistika", "denni", "NabitiBaterie"}, Unit: "kWh", Kind: KindNumber},
	{Key: DailyDischargeKWh, Path: []string{"statistika", "denni", "VybitiBaterie"}, Unit: "kWh", Kind: KindNumber},
	{Key: InverterTempC, Path: []string{"teplotaStridace"}, Unit: "°C", Kind: KindNumber},

	{Key: BatteryPowerW, Path: []string{"vykonBat"}, Unit: "W", Kind: KindNumber, Optional: true},
	{Key: InverterOutputW, Path: []string{"Inverter output total power"}, Unit: "W", Kind: KindNumber, Optional: true},
	{Key: WifiPercent, Path: []string{"wifiProc"}, Unit: "%", Kind: KindPercent, Optional: true},
	{Key: UserName, Path: []string{"jmeno"}, Unit: "", Kind: KindString, Optional: true},
	{Key: LastUpdate, Path: []string{"posledniZaznam"}, Unit: "", Kind: KindString, Optional: true},
	{Key: TimeOfDay, Path: []string{"castDne"}, Unit: "", Kind: KindString, Optional: true},
	{Key: Charger2Status, Path: []string{"nabijecka", "nabijecka2", "stavKonektoru"}, Unit: "", Kind: KindString, Optional: true},
}

// Fields returns the field map in declaration order.
//
// The returned slice is a copy; modifying it does not affect parsing.
func Fields() []Field {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return cp
}
