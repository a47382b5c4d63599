package layout

import (
	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/styletoken"
)

func init() {
	mustRegister(Layout{
		Name:    "hero",
		Section: "hero",
		Title:   "Hero",
		Collections: []Collection{
			{
				Name:             "banners",
				Label:            "banners",
				BlockType:        models.BlockTypeImage,
				MinItems:         1,
				MediaRole:        models.MediaTypeSlider,
				HeadingPrefix:    styletoken.PrefixNone,
				DefaultHeading:   styletoken.H1,
				PlaceholderTitle: "Banner",
			},
		},
	})

	mustRegister(Layout{
		Name:    "accreditations",
		Section: "accreditations",
		Title:   "Accreditations",
		Header: &Header{
			DefaultTitle: "Our Accreditations",
			DefaultLevel: styletoken.H2,
		},
		Collections: []Collection{
			{
				Name:             "certificates",
				Label:            "certificates",
				BlockType:        models.BlockTypeImage,
				MinItems:         1,
				MediaRole:        models.MediaTypePrimary,
				HeadingPrefix:    styletoken.PrefixNone,
				DefaultHeading:   styletoken.H3,
				PlaceholderTitle: "Certificate",
			},
		},
	})

	mustRegister(Layout{
		Name:    "our-story",
		Section: "our-story",
		Title:   "Our Story",
		Header: &Header{
			DefaultTitle: "Our Story",
			DefaultLevel: styletoken.H1,
		},
		Collections: []Collection{
			{
				Name:               "boxes",
				Label:              "story boxes",
				BlockType:          models.BlockTypeStatistic,
				MinItems:           7,
				MediaRole:          models.MediaTypeIcon,
				HeadingPrefix:      styletoken.PrefixHeader,
				DefaultHeading:     styletoken.H2,
				SubheadingPrefix:   styletoken.PrefixSubheader,
				DefaultSubheading:  styletoken.H3,
				PlaceholderTitle:   "0+",
				PlaceholderContent: "Description",
			},
		},
	})

	mustRegister(Layout{
		Name:    "our-journey",
		Section: "our-journey",
		Title:   "Our Journey",
		Header: &Header{
			DefaultTitle: "Our Journey",
			DefaultLevel: styletoken.H2,
		},
		Collections: []Collection{
			{
				Name:               "milestones",
				Label:              "milestones",
				BlockType:          models.BlockTypeStatistic,
				MinItems:           4,
				MediaRole:          models.MediaTypeThumbnail,
				HeadingPrefix:      styletoken.PrefixHeader,
				DefaultHeading:     styletoken.H3,
				SubheadingPrefix:   styletoken.PrefixSubheader,
				DefaultSubheading:  styletoken.H3,
				PlaceholderTitle:   "Year",
				PlaceholderContent: "Milestone",
			},
			{
				Name:      "backdrop",
				Label:     "background image",
				BlockType: models.BlockTypeImage,
				MinItems:  1,
				MediaRole: models.MediaTypeBackground,
			},
		},
	})

	mustRegister(Layout{
		Name:    "quick-links",
		Section: "quick-links",
		Title:   "Quick Links",
		Collections: []Collection{
			{
				Name:               "links",
				Label:              "quick links",
				BlockType:          models.BlockTypeCustom,
				MinItems:           4,
				MediaRole:          models.MediaTypeIcon,
				PlaceholderTitle:   "Link",
				PlaceholderContent: "/",
			},
		},
	})

	mustRegister(Layout{
		Name:    "why-choose-us",
		Section: "why-choose-us",
		Title:   "Why Choose Us",
		Header: &Header{
			DefaultTitle: "Why Choose Us",
			DefaultLevel: styletoken.H2,
		},
		Collections: []Collection{
			{
				Name:               "rows",
				Label:              "why-choose-us rows",
				BlockType:          models.BlockTypeCustom,
				MinItems:           3,
				MediaRole:          models.MediaTypeIcon,
				HeadingPrefix:      styletoken.PrefixNone,
				DefaultHeading:     styletoken.H3,
				PlaceholderTitle:   "Reason",
				PlaceholderContent: "Description",
			},
		},
	})

	mustRegister(Layout{
		Name:    SpecialityPrefix,
		Section: SpecialityPrefix,
		Title:   "Speciality",
		Header: &Header{
			DefaultTitle: "Speciality",
			DefaultLevel: styletoken.H1,
		},
		Collections: []Collection{
			{
				Name:               "facilities",
				Label:              "facilities",
				BlockType:          models.BlockTypeCustom,
				MinItems:           1,
				MediaRole:          models.MediaTypeThumbnail,
				HeadingPrefix:      styletoken.PrefixNone,
				DefaultHeading:     styletoken.H3,
				PlaceholderTitle:   "Facility",
				PlaceholderContent: "Description",
			},
			{
				Name:      "gallery",
				Label:     "gallery",
				BlockType: models.BlockTypeImage,
				MediaRole: models.MediaTypeGallery,
			},
		},
	})
}
