package site

type Plan struct {
	Name     string
	Price    string
	Period   string
	Tagline  string
	Features []string
	Featured bool
}

type Testimonial struct {
	Quote   string
	Author  string
	Role    string
	Company string
}

type Feature struct {
	Title string
	Body  string
}

var plans = []Plan{
	{
		Name:     "Starter",
		Price:    "$49",
		Period:   "/month",
		Tagline:  "For a single store getting started with AI support.",
		Features: []string{"Chat assistant on your site", "Up to 1,000 conversations", "Email support"},
	},
	{
		Name:     "Growth",
		Price:    "$149",
		Period:   "/month",
		Tagline:  "For growing retailers with several locations.",
		Features: []string{"Chat and voice assistant", "Up to 10,000 conversations", "Inventory and order lookups", "Priority support"},
		Featured: true,
	},
	{
		Name:     "Enterprise",
		Price:    "Custom",
		Tagline:  "For chains that need custom integrations.",
		Features: []string{"Unlimited conversations", "Dedicated onboarding", "SSO and audit logs", "SLA"},
	},
}

var testimonials = []Testimonial{
	{Quote: "Our weekend support queue dropped by half in the first month.", Author: "Dana Ortiz", Role: "Operations Lead", Company: "Northwind Outfitters"},
	{Quote: "Customers get store hours and order status instantly, even at midnight.", Author: "Sam Patel", Role: "Owner", Company: "Corner Grocer"},
	{Quote: "Setup took an afternoon. The voice agent handles most phone questions now.", Author: "Lee Nakamura", Role: "E-commerce Manager", Company: "Bright Home"},
}

var features = []Feature{
	{Title: "Answers around the clock", Body: "Product, order and store questions answered instantly on your website."},
	{Title: "Voice included", Body: "The same assistant takes spoken questions through the voice widget."},
	{Title: "Knows your catalogue", Body: "Connect inventory so recommendations only include what is in stock."},
}

// Plans returns the pricing table.
func Plans() []Plan { return plans }

func Testimonials() []Testimonial { return testimonials }

func Features() []Feature { return features }
