package sync

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/biter777/countries"
	"github.com/tidwall/gjson"
	"github.com/ttacon/libphonenumber"
)

// initialised records whether Init has been called.
var initialised bool

// mustBeInitialised panics if Init has not been called.
// This should be called at the entry points of the library
// to catch programming errors early.
func mustBeInitialised() {
	if !initialised {
		panic("sync: Init() must be called before using this package")
	}
}

// Init registers the path modifiers available to mapping input keys.
// It must be called once before loading config or running a sync.
func Init() {

	initialised = true

	gjson.AddModifier("countryName", func(json, arg string) string {
		s := gjson.Parse(json).String()
		c := countries.ByName(s) // will match on Alpha-2 / Alpha-3 / Name
		if countries.Unknown == c {
			return ""
		}
		return fmt.Sprintf(`"%s"`, c.String()) // returns Country Name
	})

	gjson.AddModifier("phone", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() {
			return ""
		}
		// if present, remove extra " from number
		number := strings.Trim(res.String(), `"`)
		region := ""
		if i, err := strconv.Atoi(arg); err == nil {
			region = libphonenumber.GetRegionCodeForCountryCode(i)
		}
		num, err := libphonenumber.Parse(number, region)
		if err != nil {
			log.Printf("Warning: failed to parse phone number %q with country code %q: %v (passing through unchanged)", number, arg, err)
			return fmt.Sprintf(`"%s"`, number)
		}
		return fmt.Sprintf(`"%s"`, libphonenumber.Format(num, libphonenumber.E164))
	})

	gjson.AddModifier("lower", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() || res.Type != gjson.String {
			return json
		}
		return fmt.Sprintf(`"%s"`, strings.ToLower(res.String()))
	})

	gjson.AddModifier("upper", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() || res.Type != gjson.String {
			return json
		}
		return fmt.Sprintf(`"%s"`, strings.ToUpper(res.String()))
	})

}
