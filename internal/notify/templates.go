package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/askmatsya/bolt/internal/models"
)

// OrderDetails is what the order messages render.
type OrderDetails struct {
	Ref               string // e.g. "AM1A2B3C4D"
	CustomerName      string
	CustomerPhone     string
	ProductName       string
	Price             string
	Artisan           string
	EstimatedDelivery string
	OrderedAt         time.Time
}

var indiaTime = time.FixedZone("IST", 5*60*60+30*60)

// ConfirmationMessage is sent to the customer after an order is placed.
func ConfirmationMessage(d OrderDetails, lang models.Language) string {
	var b strings.Builder
	if lang == models.LanguageTamil {
		fmt.Fprintf(&b, "🙏 வணக்கம் %s!\n\n", d.CustomerName)
		b.WriteString("*AskMatsya ஆர்டர் உறுதிப்படுத்தல்* ✅\n\n")
		b.WriteString("📦 *ஆர்டர் விவரங்கள்:*\n")
		fmt.Fprintf(&b, "🆔 ஆர்டர் ID: #%s\n", d.Ref)
		fmt.Fprintf(&b, "🛍️ பொருள்: %s\n", d.ProductName)
		fmt.Fprintf(&b, "💰 விலை: %s\n", d.Price)
		if d.Artisan != "" {
			fmt.Fprintf(&b, "👨‍🎨 கைவினைஞர்: %s\n", d.Artisan)
		}
		fmt.Fprintf(&b, "📅 எதிர்பார்க்கப்படும் டெலிவரி: %s\n\n", d.EstimatedDelivery)
		b.WriteString("*அடுத்த படிகள்:*\n")
		b.WriteString("✅ உங்கள் ஆர்டர் வெற்றிகரமாக பதிவு செய்யப்பட்டுள்ளது\n")
		b.WriteString("📞 24 மணி நேரத்திற்குள் எங்கள் குழு உங்களை அழைக்கும்\n")
		b.WriteString("💳 கட்டண விருப்பங்கள்: UPI, கார்டு, அல்லது COD\n")
		b.WriteString("🚚 பொருள் கிடைக்கும் தன்மையை உறுதிப்படுத்துவோம்\n\n")
		b.WriteString("❓ *கேள்விகளா?* இந்த எண்ணுக்கு பதிலளிக்கவும்!\n\n")
		b.WriteString("🎨 *உண்மையான இந்திய கைவினைப் பொருட்கள்*\n")
		b.WriteString("நன்றி - AskMatsya குழு 🛍️✨")
		return b.String()
	}

	fmt.Fprintf(&b, "🙏 Namaste %s!\n\n", d.CustomerName)
	b.WriteString("*AskMatsya Order Confirmation* ✅\n\n")
	b.WriteString("📦 *Order Details:*\n")
	fmt.Fprintf(&b, "🆔 Order ID: #%s\n", d.Ref)
	fmt.Fprintf(&b, "🛍️ Product: %s\n", d.ProductName)
	fmt.Fprintf(&b, "💰 Price: %s\n", d.Price)
	if d.Artisan != "" {
		fmt.Fprintf(&b, "👨‍🎨 Artisan: %s\n", d.Artisan)
	}
	fmt.Fprintf(&b, "📅 Expected Delivery: %s\n\n", d.EstimatedDelivery)
	b.WriteString("*Next Steps:*\n")
	b.WriteString("✅ Your order has been successfully registered\n")
	b.WriteString("📞 Our team will call you within 24 hours\n")
	b.WriteString("💳 Payment options: UPI, Card, or Cash on Delivery\n")
	b.WriteString("🚚 We'll confirm product availability & delivery\n\n")
	b.WriteString("❓ *Questions?* Simply reply to this message!\n\n")
	b.WriteString("🎨 *Authentic Indian Handcrafts*\n")
	b.WriteString("Thank you - Team AskMatsya 🛍️✨")
	return b.String()
}

// AdminAlert tells the shop owner about a new order.
func AdminAlert(d OrderDetails, adminURL string) string {
	var b strings.Builder
	b.WriteString("🚨 *NEW ORDER ALERT* 🚨\n\n")
	fmt.Fprintf(&b, "📦 Order #%s\n", d.Ref)
	fmt.Fprintf(&b, "👤 Customer: %s\n", d.CustomerName)
	fmt.Fprintf(&b, "📱 Phone: %s\n", d.CustomerPhone)
	fmt.Fprintf(&b, "🛍️ Product: %s\n", d.ProductName)
	fmt.Fprintf(&b, "💰 Price: %s\n", d.Price)
	if d.Artisan != "" {
		fmt.Fprintf(&b, "👨‍🎨 Artisan: %s\n", d.Artisan)
	}
	fmt.Fprintf(&b, "\n⏰ Ordered: %s\n\n", d.OrderedAt.In(indiaTime).Format("2/1/2006, 3:04:05 pm"))
	b.WriteString("*ACTION REQUIRED:*\n")
	b.WriteString("1. Contact customer within 24 hours\n")
	b.WriteString("2. Confirm product availability\n")
	b.WriteString("3. Discuss final pricing & delivery\n")
	b.WriteString("4. Update order status in admin panel\n\n")
	fmt.Fprintf(&b, "🔗 Admin Panel: %s/admin\n\n", strings.TrimRight(adminURL, "/"))
	b.WriteString("*AskMatsya Order Management*")
	return b.String()
}

var statusMessages = map[models.Language]map[models.OrderStatus]string{
	models.LanguageEnglish: {
		models.OrderStatusConfirmed:  "✅ Great news! Your order #%s has been confirmed by our artisan. We'll start crafting your beautiful piece soon!",
		models.OrderStatusProcessing: "🎨 Your order #%s is now being crafted with love and traditional techniques. We'll update you on progress!",
		models.OrderStatusShipped:    "🚚 Exciting! Your order #%s has been shipped. Your authentic handcraft is on its way to you!",
		models.OrderStatusDelivered:  "🎉 Wonderful! Your order #%s has been delivered. We hope you love your authentic Indian handcraft! Please share your feedback.",
	},
	models.LanguageTamil: {
		models.OrderStatusConfirmed:  "✅ நல்ல செய்தி! உங்கள் ஆர்டர் #%s எங்கள் கைவினைஞரால் உறுதிப்படுத்தப்பட்டுள்ளது. விரைவில் உங்கள் அழகான பொருளை உருவாக்க ஆரம்பிப்போம்!",
		models.OrderStatusProcessing: "🎨 உங்கள் ஆர்டர் #%s இப்போது அன்பு மற்றும் பாரம்பரிய நுட்பங்களுடன் உருவாக்கப்படுகிறது. முன்னேற்றத்தை உங்களுக்கு தெரிவிப்போம்!",
		models.OrderStatusShipped:    "🚚 உற்சாகம்! உங்கள் ஆர்டர் #%s அனுப்பப்பட்டுள்ளது. உங்கள் உண்மையான கைவினைப் பொருள் உங்களை நோக்கி வருகிறது!",
		models.OrderStatusDelivered:  "🎉 அருமை! உங்கள் ஆர்டர் #%s டெலிவர் செய்யப்பட்டுள்ளது. உங்கள் உண்மையான இந்திய கைவினைப் பொருளை நீங்கள் விரும்புவீர்கள் என்று நம்புகிறோம்! உங்கள் கருத்தைப் பகிரவும்.",
	},
}

// StatusUpdate tells the customer their order moved to status.
func StatusUpdate(ref string, status models.OrderStatus, lang models.Language) string {
	if tmpl, ok := statusMessages[lang][status]; ok {
		return fmt.Sprintf(tmpl, ref)
	}
	return fmt.Sprintf("📦 Your order #%s status has been updated to: %s", ref, status)
}
