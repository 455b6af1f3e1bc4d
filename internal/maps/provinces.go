package maps

import (
	"strings"

	"carrent/internal/domain"
)

// Region is one of the six geographic regions of Thailand.
type Region string

const (
	RegionNorth     Region = "north"
	RegionNortheast Region = "northeast"
	RegionCentral   Region = "central"
	RegionEast      Region = "east"
	RegionWest      Region = "west"
	RegionSouth     Region = "south"
)

// Viewport zoom levels.
const (
	CountryZoom  = 6
	RegionZoom   = 8
	ProvinceZoom = 11
	PinZoom      = 15
	ShopZoom     = 16
)

// Province is a pickable province.
type Province struct {
	Name   string
	Region Region
	Center *domain.LatLng
}

// RegionGroup is a region and its provinces, in display order.
type RegionGroup struct {
	Region    Region
	Label     string
	Provinces []string
}

var countryCenter = domain.LatLng{Lat: 15.8700, Lng: 100.9925}

var regionOrder = []struct {
	region Region
	label  string
	center domain.LatLng
}{
	{RegionCentral, "Central", domain.LatLng{Lat: 14.5000, Lng: 100.4000}},
	{RegionNorth, "North", domain.LatLng{Lat: 18.5000, Lng: 99.5000}},
	{RegionNortheast, "Northeast", domain.LatLng{Lat: 15.9000, Lng: 103.2000}},
	{RegionEast, "East", domain.LatLng{Lat: 13.1000, Lng: 101.6000}},
	{RegionWest, "West", domain.LatLng{Lat: 14.2000, Lng: 99.2000}},
	{RegionSouth, "South", domain.LatLng{Lat: 8.4000, Lng: 99.6000}},
}

func at(lat, lng float64) *domain.LatLng {
	return &domain.LatLng{Lat: lat, Lng: lng}
}

var provinces = []Province{
	// Central
	{"Bangkok", RegionCentral, at(13.7563, 100.5018)},
	{"Ang Thong", RegionCentral, nil},
	{"Chai Nat", RegionCentral, nil},
	{"Kamphaeng Phet", RegionCentral, nil},
	{"Lopburi", RegionCentral, at(14.7995, 100.6534)},
	{"Nakhon Nayok", RegionCentral, nil},
	{"Nakhon Pathom", RegionCentral, at(13.8199, 100.0622)},
	{"Nakhon Sawan", RegionCentral, at(15.7047, 100.1372)},
	{"Nonthaburi", RegionCentral, at(13.8621, 100.5144)},
	{"Pathum Thani", RegionCentral, at(14.0208, 100.5250)},
	{"Phetchabun", RegionCentral, nil},
	{"Phichit", RegionCentral, nil},
	{"Phitsanulok", RegionCentral, at(16.8211, 100.2659)},
	{"Phra Nakhon Si Ayutthaya", RegionCentral, at(14.3532, 100.5689)},
	{"Samut Prakan", RegionCentral, at(13.5991, 100.5998)},
	{"Samut Sakhon", RegionCentral, at(13.5475, 100.2744)},
	{"Samut Songkhram", RegionCentral, nil},
	{"Saraburi", RegionCentral, nil},
	{"Sing Buri", RegionCentral, nil},
	{"Sukhothai", RegionCentral, at(17.0056, 99.8264)},
	{"Suphan Buri", RegionCentral, nil},
	{"Uthai Thani", RegionCentral, nil},

	// North
	{"Chiang Mai", RegionNorth, at(18.7883, 98.9853)},
	{"Chiang Rai", RegionNorth, at(19.9105, 99.8406)},
	{"Lampang", RegionNorth, at(18.2888, 99.4909)},
	{"Lamphun", RegionNorth, nil},
	{"Mae Hong Son", RegionNorth, at(19.3020, 97.9654)},
	{"Nan", RegionNorth, at(18.7756, 100.7730)},
	{"Phayao", RegionNorth, nil},
	{"Phrae", RegionNorth, nil},
	{"Uttaradit", RegionNorth, nil},

	// Northeast
	{"Amnat Charoen", RegionNortheast, nil},
	{"Bueng Kan", RegionNortheast, nil},
	{"Buriram", RegionNortheast, at(14.9930, 103.1029)},
	{"Chaiyaphum", RegionNortheast, nil},
	{"Kalasin", RegionNortheast, nil},
	{"Khon Kaen", RegionNortheast, at(16.4419, 102.8360)},
	{"Loei", RegionNortheast, nil},
	{"Maha Sarakham", RegionNortheast, nil},
	{"Mukdahan", RegionNortheast, nil},
	{"Nakhon Phanom", RegionNortheast, nil},
	{"Nakhon Ratchasima", RegionNortheast, at(14.9799, 102.0978)},
	{"Nong Bua Lamphu", RegionNortheast, nil},
	{"Nong Khai", RegionNortheast, at(17.8783, 102.7420)},
	{"Roi Et", RegionNortheast, nil},
	{"Sakon Nakhon", RegionNortheast, nil},
	{"Sisaket", RegionNortheast, nil},
	{"Surin", RegionNortheast, nil},
	{"Ubon Ratchathani", RegionNortheast, at(15.2287, 104.8564)},
	{"Udon Thani", RegionNortheast, at(17.4138, 102.7872)},
	{"Yasothon", RegionNortheast, nil},

	// East
	{"Chachoengsao", RegionEast, nil},
	{"Chanthaburi", RegionEast, at(12.6114, 102.1039)},
	{"Chonburi", RegionEast, at(13.3611, 100.9847)},
	{"Prachinburi", RegionEast, nil},
	{"Rayong", RegionEast, at(12.6814, 101.2816)},
	{"Sa Kaeo", RegionEast, nil},
	{"Trat", RegionEast, at(12.2428, 102.5175)},

	// West
	{"Kanchanaburi", RegionWest, at(14.0228, 99.5328)},
	{"Phetchaburi", RegionWest, at(13.1119, 99.9399)},
	{"Prachuap Khiri Khan", RegionWest, at(11.8124, 99.7973)},
	{"Ratchaburi", RegionWest, nil},
	{"Tak", RegionWest, nil},

	// South
	{"Chumphon", RegionSouth, nil},
	{"Krabi", RegionSouth, at(8.0863, 98.9063)},
	{"Nakhon Si Thammarat", RegionSouth, at(8.4304, 99.9631)},
	{"Narathiwat", RegionSouth, nil},
	{"Pattani", RegionSouth, nil},
	{"Phang Nga", RegionSouth, nil},
	{"Phatthalung", RegionSouth, nil},
	{"Phuket", RegionSouth, at(7.8804, 98.3923)},
	{"Ranong", RegionSouth, nil},
	{"Satun", RegionSouth, nil},
	{"Songkhla", RegionSouth, at(7.1898, 100.5954)},
	{"Surat Thani", RegionSouth, at(9.1382, 99.3217)},
	{"Trang", RegionSouth, nil},
	{"Yala", RegionSouth, nil},
}

var provinceIndex = func() map[string]Province {
	m := make(map[string]Province, len(provinces))
	for _, p := range provinces {
		m[normalizeProvince(p.Name)] = p
	}
	return m
}()

func normalizeProvince(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// LookupProvince finds a province by name, ignoring case and spacing.
func LookupProvince(name string) (Province, bool) {
	p, ok := provinceIndex[normalizeProvince(name)]
	return p, ok
}

// Provinces returns every province.
func Provinces() []Province {
	out := make([]Province, len(provinces))
	copy(out, provinces)
	return out
}

// ProvinceGroups returns provinces grouped by region for pickers.
func ProvinceGroups() []RegionGroup {
	groups := make([]RegionGroup, 0, len(regionOrder))
	for _, r := range regionOrder {
		g := RegionGroup{Region: r.region, Label: r.label}
		for _, p := range provinces {
			if p.Region == r.region {
				g.Provinces = append(g.Provinces, p.Name)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// RegionCenter returns the center of r.
func RegionCenter(r Region) (domain.LatLng, bool) {
	for _, entry := range regionOrder {
		if entry.region == r {
			return entry.center, true
		}
	}
	return domain.LatLng{}, false
}

// CountryView is the viewport covering the whole country.
func CountryView() View {
	return View{Center: countryCenter, Zoom: CountryZoom}
}

// ViewportFor picks the initial viewport when no pin exists. The
// destination province wins over the current one; a province without a
// known center falls back to its region, and unrecognized names to the
// whole country.
func ViewportFor(destination, current string) View {
	candidates := []string{destination, current}

	for _, name := range candidates {
		if p, ok := LookupProvince(name); ok && p.Center != nil {
			return View{Center: *p.Center, Zoom: ProvinceZoom}
		}
	}
	for _, name := range candidates {
		if p, ok := LookupProvince(name); ok {
			if c, ok := RegionCenter(p.Region); ok {
				return View{Center: c, Zoom: RegionZoom}
			}
		}
	}
	return CountryView()
}
