package extract

// Canonical units.
const (
	UnitINR     = "INR"
	UnitUSD     = "USD"
	UnitPercent = "percent"
	UnitKM      = "km"
	UnitHectare = "hectare"
	UnitTonne   = "tonne"
	UnitMW      = "MW"
	UnitYear    = "year"
)

type unit struct {
	canonical string
	factor    float64
}

var (
	inr     = unit{UnitINR, 1}
	usd     = unit{UnitUSD, 1}
	percent = unit{UnitPercent, 1}
)

// multipliers scale the number they follow. They chain: "2 lakh crore" is 2e12.
var multipliers = map[string]float64{
	"thousand": 1e3,
	"lakh":     1e5,
	"lakhs":    1e5,
	"lac":      1e5,
	"million":  1e6,
	"crore":    1e7,
	"crores":   1e7,
	"cr":       1e7,
	"billion":  1e9,
	"trillion": 1e12,
}

// currencyPrefixes may precede a number: "₹ 500", "rs 500".
var currencyPrefixes = map[string]unit{
	"₹":   inr,
	"rs":  inr,
	"inr": inr,
	"$":   usd,
	"usd": usd,
}

// unitSuffixes may follow a number and its multipliers.
var unitSuffixes = map[string]unit{
	"%":       percent,
	"percent": percent,

	"rs":     inr,
	"inr":    inr,
	"rupee":  inr,
	"rupees": inr,

	"usd":     usd,
	"dollar":  usd,
	"dollars": usd,

	"km":         {UnitKM, 1},
	"kms":        {UnitKM, 1},
	"kilometre":  {UnitKM, 1},
	"kilometres": {UnitKM, 1},
	"kilometer":  {UnitKM, 1},
	"kilometers": {UnitKM, 1},
	"metre":      {UnitKM, 0.001},
	"metres":     {UnitKM, 0.001},
	"meter":      {UnitKM, 0.001},
	"meters":     {UnitKM, 0.001},
	"hectare":    {UnitHectare, 1},
	"hectares":   {UnitHectare, 1},
	"ha":         {UnitHectare, 1},
	"acre":       {UnitHectare, 0.404686},
	"acres":      {UnitHectare, 0.404686},
	"tonne":      {UnitTonne, 1},
	"tonnes":     {UnitTonne, 1},
	"mt":         {UnitTonne, 1},
	"kw":         {UnitMW, 0.001},
	"kilowatt":   {UnitMW, 0.001},
	"kilowatts":  {UnitMW, 0.001},
	"mw":         {UnitMW, 1},
	"megawatt":   {UnitMW, 1},
	"megawatts":  {UnitMW, 1},
	"gw":         {UnitMW, 1000},
	"gigawatt":   {UnitMW, 1000},
	"gigawatts":  {UnitMW, 1000},
}

var smallNumberWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tensWords = map[string]float64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

func isNumberWord(w string) bool {
	_, small := smallNumberWords[w]
	_, tens := tensWords[w]
	return small || tens
}
