package main

import (
	"math/rand/v2"
)

// The corpus leans on obscure-but-real English words, so that a table of
// bluffed definitions is plausible next to the genuine one.
var wordList = []WordEntry{
	{Word: "Wamble", Definition: "A feeling of nausea or uneasiness in the stomach; to feel sick."},
	{Word: "Collywobbles", Definition: "Stomach pain or queasiness; nervousness or anxiety."},
	{Word: "Borborygmus", Definition: "A rumbling or gurgling sound caused by the movement of fluid and gas in the intestines."},
	{Word: "Snollygoster", Definition: "A shrewd, unprincipled person, especially a politician."},
	{Word: "Lollygag", Definition: "To spend time aimlessly; to dawdle or loiter."},
	{Word: "Kerfuffle", Definition: "A commotion or fuss, especially one caused by conflicting views."},
	{Word: "Bumfuzzle", Definition: "To confuse, perplex, or fluster someone completely."},
	{Word: "Skedaddle", Definition: "To depart quickly or hurriedly; to run away."},
	{Word: "Cattywampus", Definition: "Askew, awry, or positioned diagonally; not straight."},
	{Word: "Flibbertigibbet", Definition: "A frivolous, flighty, or excessively talkative person."},
	{Word: "Gobbledygook", Definition: "Language that is meaningless or hard to understand; jargon."},
	{Word: "Hullabaloo", Definition: "A commotion or fuss; a lot of noise or excitement about something."},
	{Word: "Nincompoop", Definition: "A foolish or stupid person; someone lacking intelligence."},
	{Word: "Bamboozle", Definition: "To fool or cheat someone; to confuse or deceive."},
	{Word: "Hornswoggle", Definition: "To swindle or cheat someone out of something."},
	{Word: "Brouhaha", Definition: "A noisy and overexcited reaction or response to something."},
	{Word: "Taradiddle", Definition: "A small lie; a fib or pretentious nonsense."},
	{Word: "Shenanigans", Definition: "Secret or dishonest activity or maneuvering; mischief."},
	{Word: "Codswallop", Definition: "Nonsense; something that is not true or is foolish."},
	{Word: "Rigmarole", Definition: "A lengthy and complicated procedure; a long, rambling story."},
	{Word: "Poppycock", Definition: "Senseless talk or writing; nonsense or foolishness."},
	{Word: "Balderdash", Definition: "Senseless talk or writing; nonsense or drivel."},
	{Word: "Tomfoolery", Definition: "Foolish or silly behavior; nonsensical conduct."},
	{Word: "Gallivant", Definition: "To go around from one place to another seeking pleasure or entertainment."},
	{Word: "Whippersnapper", Definition: "A young person considered to be presumptuous or overconfident."},
	{Word: "Rapscallion", Definition: "A mischievous person; a rascal or scoundrel."},
	{Word: "Scalawag", Definition: "A person who behaves badly but in an amusingly mischievous way; a rascal."},
	{Word: "Hootenanny", Definition: "An informal gathering with folk music and sometimes dancing."},
	{Word: "Humdinger", Definition: "A remarkable or outstanding person or thing of its kind."},
	{Word: "Sockdolager", Definition: "Something that settles a matter; a decisive blow or answer."},
}

func randomWord() *WordEntry {
	entry := wordList[rand.IntN(len(wordList))]

	return &entry
}
