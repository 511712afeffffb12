package matcher

import (
	"fmt"

	"github.com/askmatsya/bolt/internal/models"
)

// phrasebook holds the assistant's canned replies for one language.
type phrasebook struct {
	wedding    string
	saree      string
	jewelry    string
	spice      string
	gift       string
	noProducts string
	greeting   string
	reason     string

	budget      func(budget string) string
	cultural    func(name, significance string) string
	found       func(n int) string
	newProducts func(count int) string
}

var phrases = map[models.Language]phrasebook{
	models.LanguageEnglish: {
		wedding:    "Namaste! For weddings, I recommend these exquisite pieces that will make the occasion truly special. Banarasi sarees are perfect for brides, while Kundan jewelry adds royal elegance. Each piece carries centuries of tradition and craftsmanship.",
		saree:      "Saree - the pride of Indian women! Our collection features authentic handwoven sarees from different regions. Each saree tells a story of tradition, artistry, and cultural heritage.",
		jewelry:    "Traditional Indian jewelry is not just adornment - it's a symbol of prosperity and cultural identity. Our Kundan and traditional pieces are crafted by master artisans using time-honored techniques.",
		spice:      "Indian spices - a treasure trove of flavors and aromas! Our spice collection brings authentic flavors from different regions of India. Each spice is carefully sourced and traditionally processed.",
		gift:       "Gift-giving is a beautiful way to show love! These handcrafted pieces make perfect gifts - each one unique and meaningful. They carry the warmth of Indian tradition and the skill of our artisans.",
		noProducts: "I apologize, but I couldn't find any products matching your request at the moment. Our catalog is constantly being updated with new authentic items.",
		greeting:   "Namaste! I'm here to help you discover authentic Indian ethnic products. Here are some of our featured items that showcase the beauty of Indian craftsmanship. What specific type of product are you looking for?",
		reason:     "Based on your preferences, I've selected these authentic pieces that perfectly match your needs.",
		budget: func(budget string) string {
			return fmt.Sprintf("I've found some excellent options within your ₹%s budget. All these products are authentic and come directly from artisans.", budget)
		},
		cultural: func(name, significance string) string {
			return fmt.Sprintf("Let me tell you about %s! %s\n\nThis beautiful tradition has been passed down through generations, and each piece we offer maintains these authentic practices.", name, significance)
		},
		found: func(n int) string {
			return fmt.Sprintf("I found %d products that match what you're looking for. Each one is handcrafted by skilled artisans.", n)
		},
		newProducts: func(count int) string {
			return fmt.Sprintf("Great news! I can see we have %d products in our collection, including some recently added items. Let me show you what's available!", count)
		},
	},
	models.LanguageTamil: {
		wedding:    "வணக்கம்! திருமணங்களுக்கு, இந்த அழகான பொருட்களை நான் பரிந்துரைக்கிறேன், அவை இந்த நிகழ்வை உண்மையிலேயே சிறப்பாக்கும். பனாரசி புடவைகள் மணப்பெண்களுக்கு சரியானவை, அதே நேரத்தில் குந்தன் நகைகள் அரச நேர்த்தியை சேர்க்கின்றன. ஒவ்வொரு பொருளும் நூற்றாண்டுகளின் பாரம்பரியத்தையும் கைவினைத்திறனையும் கொண்டுள்ளது.",
		saree:      "புடவை - இந்திய பெண்களின் பெருமை! எங்கள் தொகுப்பில் பல்வேறு பகுதிகளிலிருந்து உண்மையான கைத்தறி புடவைகள் உள்ளன. ஒவ்வொரு புடவையும் பாரம்பரியம், கலை மற்றும் கலாச்சார பாரம்பரியத்தின் கதையைச் சொல்கிறது.",
		jewelry:    "பாரம்பரிய இந்திய நகைகள் வெறும் அலங்காரம் அல்ல - அது செழிப்பு மற்றும் கலாச்சார அடையாளத்தின் சின்னம். எங்கள் குந்தன் மற்றும் பாரம்பரிய பொருட்கள் காலங்காலமாக கடைபிடிக்கப்படும் நுட்பங்களைப் பயன்படுத்தி தலைசிறந்த கைவினைஞர்களால் வடிவமைக்கப்பட்டுள்ளன.",
		spice:      "இந்திய மசாலாக்கள் - சுவைகள் மற்றும் நறுமணங்களின் பொக்கிஷம்! எங்கள் மசாலா தொகுப்பு இந்தியாவின் பல்வேறு பகுதிகளிலிருந்து உண்மையான சுவைகளைக் கொண்டு வருகிறது. ஒவ்வொரு மசாலாவும் கவனமாக தேர்ந்தெடுக்கப்பட்டு பாரம்பரியமாக செயலாக்கப்படுகிறது.",
		gift:       "பரிசு வழங்குவது அன்பைக் காட்டும் அழகான வழி! இந்த கைவினைப் பொருட்கள் சரியான பரிசுகளாக அமைகின்றன - ஒவ்வொன்றும் தனித்துவமானது மற்றும் அர்த்தமுள்ளது. அவை இந்திய பாரம்பரியத்தின் அரவணைப்பையும் எங்கள் கைவினைஞர்களின் திறமையையும் கொண்டுள்ளன.",
		noProducts: "மன்னிக்கவும், உங்கள் கோரிக்கைக்கு பொருந்தும் எந்த பொருட்களையும் இந்த நேரத்தில் என்னால் கண்டுபிடிக்க முடியவில்லை. எங்கள் பட்டியல் தொடர்ந்து புதிய உண்மையான பொருட்களுடன் புதுப்பிக்கப்படுகிறது.",
		greeting:   "வணக்கம்! உண்மையான இந்திய பாரம்பரிய பொருட்களைக் கண்டறிய நான் இங்கே உதவ இருக்கிறேன். இந்திய கைவினைத்திறனின் அழகைக் காட்டும் எங்கள் சிறப்பு பொருட்களில் சில இங்கே உள்ளன. நீங்கள் எந்த குறிப்பிட்ட வகை பொருளைத் தேடுகிறீர்கள்?",
		reason:     "உங்கள் விருப்பங்களின் அடிப்படையில், உங்கள் தேவைகளுக்கு சரியாக பொருந்தும் இந்த உண்மையான பொருட்களை நான் தேர்ந்தெடுத்துள்ளேன்.",
		budget: func(budget string) string {
			return fmt.Sprintf("உங்கள் ₹%s பட்ஜெட்டுக்குள் சில சிறந்த விருப்பங்களை நான் கண்டுபிடித்துள்ளேன். இந்த அனைத்து பொருட்களும் உண்மையானவை மற்றும் நேரடியாக கைவினைஞர்களிடமிருந்து வருகின்றன.", budget)
		},
		cultural: func(name, significance string) string {
			return fmt.Sprintf("%s பற்றி நான் உங்களுக்குச் சொல்கிறேன்! %s\n\nஇந்த அழகான பாரம்பரியம் தலைமுறைகளாக கடத்தப்பட்டு வருகிறது, மற்றும் நாங்கள் வழங்கும் ஒவ்வொரு பொருளும் இந்த உண்மையான நடைமுறைகளை பராமரிக்கிறது.", name, significance)
		},
		found: func(n int) string {
			return fmt.Sprintf("நீங்கள் தேடுவதற்கு பொருந்தும் %d பொருட்களை நான் கண்டுபிடித்துள்ளேன். ஒவ்வொன்றும் திறமையான கைவினைஞர்களால் உருவாக்கப்பட்டது.", n)
		},
		newProducts: func(count int) string {
			return fmt.Sprintf("நல்ல செய்தி! எங்கள் தொகுப்பில் %d பொருட்கள் உள்ளன என்பதை நான் பார்க்க முடிகிறது, அதில் சமீபத்தில் சேர்க்கப்பட்ட சில பொருட்களும் அடங்கும். கிடைக்கும் பொருட்களை உங்களுக்குக் காட்டுகிறேன்!", count)
		},
	},
}

func phrasesFor(lang models.Language) phrasebook {
	if p, ok := phrases[lang]; ok {
		return p
	}
	return phrases[models.LanguageEnglish]
}

// Greeting is the assistant's opening line.
func Greeting(lang models.Language) string {
	return phrasesFor(lang).greeting
}
