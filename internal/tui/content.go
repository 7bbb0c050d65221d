package tui

// Front panel copy.
const frontTitle = "Welcome To Tech Literacy Tips!"

type bullet struct {
	title string
	body  string
}

var frontBullets = []bullet{
	{"Learn Programming Basics", "Step-by-step guides to understand coding concepts and languages."},
	{"Practical Tech Tips", "Simple techniques to improve your digital skills and problem-solving."},
	{"Build Real Projects", "Apply what you learn by creating fun and useful programming projects."},
}

// Learn panel copy. A terminal cannot embed the video, so the watch link
// is shown instead.
const (
	learnTitle    = "Start Learning"
	learnVideoURL = "https://youtu.be/salY_Sm6mv4"
)

// Right panel copy.
const (
	rightTitle = "Ready?"
	rightBody  = "Watch the first lesson or fly around the globe."
)
