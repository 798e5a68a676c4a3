package siteconfig

// Default returns a fresh copy of the built-in configuration. Callers may
// mutate the result freely.
func Default() SiteConfig {
	return SiteConfig{
		SiteName: "NutriRoom",
		Logo: Logo{
			Type: LogoText,
			Text: "NutriRoom",
			Font: FontPoppins,
		},
		Theme: Theme{
			PrimaryColor:  ColorGreen,
			TitleFontSize: FontSizeLarge,
		},
		HeroSection: HeroSection{
			Title:    "Nutrition follow-up that fits your routine",
			Subtitle: "Log meals, water and weight, and talk to your nutritionist in one place.",
			CTA:      "Start now",
			ImageURL: "https://images.unsplash.com/photo-1490645935967-10de6ba17061",
		},
		FeaturesSection: FeaturesSection{
			Title:    "Everything you need",
			Subtitle: "Tools for patients and professionals.",
			Items: []Feature{
				{Icon: IconSalad, Title: "Meal diary", Description: "Record every meal and see calories and protein add up."},
				{Icon: IconDroplet, Title: "Hydration", Description: "Track your daily water goal."},
				{Icon: IconChart, Title: "Progress", Description: "Follow your weight towards the target date."},
				{Icon: IconChat, Title: "Direct chat", Description: "Message your nutritionist whenever you need."},
			},
		},
		ProfessionalProfileSection: ProfessionalProfileSection{
			Name:        "Your nutritionist",
			Title:       "Registered Dietitian",
			Bio:         "Personalised meal plans and continuous follow-up.",
			ImageURL:    "https://images.unsplash.com/photo-1559839734-2b71ea197ec2",
			Credentials: []string{},
		},
		CTASection: CTASection{
			Title:      "Ready to start?",
			Subtitle:   "Create your free account in under a minute.",
			ButtonText: "Create account",
		},
		TestimonialsSection: TestimonialsSection{
			Title: "What our patients say",
			Items: []Testimonial{},
		},
		FinalCTASection: CTASection{
			Title:      "Your plan is one message away",
			Subtitle:   "Join today and share your code with your nutritionist.",
			ButtonText: "Get started",
		},
	}
}
