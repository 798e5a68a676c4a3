// Package siteconfig resolves the branding and landing-page content a tenant's
// visitors see: a tenant override document merged over built-in defaults.
package siteconfig

type LogoType string

const (
	LogoImage LogoType = "image"
	LogoText  LogoType = "text"
)

type Font string

const (
	FontInter      Font = "inter"
	FontPoppins    Font = "poppins"
	FontMontserrat Font = "montserrat"
	FontPlayfair   Font = "playfair"
	FontLora       Font = "lora"
)

type Color string

const (
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorOrange Color = "orange"
	ColorRose   Color = "rose"
	ColorTeal   Color = "teal"
)

type FontSize string

const (
	FontSizeSmall  FontSize = "sm"
	FontSizeMedium FontSize = "md"
	FontSizeLarge  FontSize = "lg"
	FontSizeXL     FontSize = "xl"
)

// Icon names a feature icon. Only the listed values are accepted, so an
// unknown name is rejected while resolving instead of when rendering.
type Icon string

const (
	IconApple    Icon = "apple"
	IconSalad    Icon = "salad"
	IconHeart    Icon = "heart"
	IconActivity Icon = "activity"
	IconDroplet  Icon = "droplet"
	IconScale    Icon = "scale"
	IconChart    Icon = "chart"
	IconChat     Icon = "chat"
	IconCalendar Icon = "calendar"
	IconTarget   Icon = "target"
)

type SiteConfig struct {
	SiteName                   string                     `json:"site_name" validate:"required"`
	Logo                       Logo                       `json:"logo"`
	Theme                      Theme                      `json:"theme"`
	HeroSection                HeroSection                `json:"hero_section"`
	FeaturesSection            FeaturesSection            `json:"features_section"`
	ProfessionalProfileSection ProfessionalProfileSection `json:"professional_profile_section"`
	CTASection                 CTASection                 `json:"cta_section"`
	TestimonialsSection        TestimonialsSection        `json:"testimonials_section"`
	FinalCTASection            CTASection                 `json:"final_cta_section"`
}

// Logo is either an image (ImageURL) or styled text (Text + Font), selected by Type.
type Logo struct {
	Type     LogoType `json:"type" validate:"required,oneof=image text"`
	ImageURL string   `json:"image_url" validate:"required_if=Type image,omitempty,url"`
	Text     string   `json:"text" validate:"required_if=Type text"`
	Font     Font     `json:"font" validate:"omitempty,oneof=inter poppins montserrat playfair lora"`
}

type Theme struct {
	PrimaryColor  Color    `json:"primary_color" validate:"required,oneof=green blue purple orange rose teal"`
	TitleFontSize FontSize `json:"title_font_size" validate:"required,oneof=sm md lg xl"`
}

type HeroSection struct {
	Title    string `json:"title" validate:"required"`
	Subtitle string `json:"subtitle" validate:"required"`
	CTA      string `json:"cta" validate:"required"`
	ImageURL string `json:"image_url" validate:"required,url"`
}

type Feature struct {
	Icon        Icon   `json:"icon" validate:"required,oneof=apple salad heart activity droplet scale chart chat calendar target"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type FeaturesSection struct {
	Title    string    `json:"title" validate:"required"`
	Subtitle string    `json:"subtitle"`
	Items    []Feature `json:"items" validate:"required,min=1,dive"`
}

type ProfessionalProfileSection struct {
	Name        string   `json:"name" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Bio         string   `json:"bio" validate:"required"`
	ImageURL    string   `json:"image_url" validate:"required,url"`
	Credentials []string `json:"credentials" validate:"dive,required"`
}

type CTASection struct {
	Title      string `json:"title" validate:"required"`
	Subtitle   string `json:"subtitle"`
	ButtonText string `json:"button_text" validate:"required"`
}

type Testimonial struct {
	Name     string `json:"name" validate:"required"`
	Quote    string `json:"quote" validate:"required"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

type TestimonialsSection struct {
	Title string        `json:"title" validate:"required"`
	Items []Testimonial `json:"items" validate:"dive"`
}
