/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playback

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultFlavorLines is the built-in caption pool. A YAML file can replace
// it at startup; see LoadCaptionPool.
var defaultFlavorLines = []string{
	"HODL the beat, not just the coin! 🎧",
	"This track pumps harder than a bull run! 📈",
	"Crypto vibes only – no fiat tunes here! 💸",
	"To the moon, and to the dance floor! 🌙",
	"Play this while you stake your $SQUONK! 🤑",
	"When the beat drops, so does the market! 📉",
	"Squonking my way to financial freedom! 🚀",
	"This song’s a better investment than my altcoins! 🎶",
	"Turn up the volume, turn down the FUD! 🔊",
	"Crypto whales love this beat – guaranteed! 🐳",
	"Wen lambo? Wen this track ends! 🏎️",
	"This tune’s got more energy than a gas fee! ⛽",
	"Squonk hard, trade smart! 💡",
	"When your portfolio dips, but the beat don’t! 📊",
	"This track’s a 100x gem – don’t miss out! 💎",
	"Rugpulls can’t stop this rhythm! 🕺",
	"Play this while you DCA your $SQUONK! 📅",
	"Mooning to this beat – who needs charts? 🌕",
	"When the market crashes, but the music slaps! 💥",
	"This song’s my new wallet seed phrase! 🔑",
	"Squonking through the bear market like… 🐻",
	"Crypto bros and sick beats – name a better duo! 👊",
	"This track’s hotter than a Solana transaction! ⚡",
	"When your $SQUONK bags are heavy, but the beat is light! 🎒",
	"Don’t FOMO on this song – it’s a banger! 🚨",
	"This tune’s got more pumps than a shitcoin! 📈",
	"Squonk now, panic sell later! 😅",
	"When the beat hits harder than a market dip! 📉",
	"This track’s my exit liquidity – I’m out! 🏃",
	"Play this while you shill $SQUONK to your friends! 🗣️",
	"Crypto gains and music pains – let’s roll! 🎸",
	"When the market’s red, but the vibes are green! 🟢",
	"This song’s a better store of value than BTC! 🪙",
	"Squonking my way to the next ATH! 📈",
	"Who needs a whitepaper when you’ve got this beat? 📜",
	"This track’s my new crypto strategy – vibe only! 🧠",
	"When the beat’s so good, you forget about your losses! 🥳",
	"Squonk hard or go home – no paper hands here! ✋",
	"This song’s my new staking reward! 🎁",
	"When the market’s down, but the music’s up! 🔊",
	"This track’s more decentralized than DeFi! 🌐",
	"Squonking through the dip – nothing can stop me! 💪",
	"Play this while you wait for the next pump! ⏳",
	"This beat’s got more utility than my altcoins! 🔧",
	"When your $SQUONK bags moon, but the beat moons harder! 🌑",
	"Crypto life, music vibes – the perfect combo! 🎤",
	"This track’s my new crypto advisor – trust me! 🤝",
	"Squonk now, DYOR later! 🕵️",
	"When the beat’s so good, you forget about gas fees! ⛽",
	"This song’s my new rugpull protection! 🛡️",
	"Squonking all the way to the bank! 🏦",
	"Play this while you dream of $SQUONK millions! 💭",
	"This track’s the only thing I’m not selling! 🚫",
	"When the market’s volatile, but the beat’s stable! ⚖️",
}

// CaptionPool holds the flavor lines attached to deliveries.
type CaptionPool struct {
	lines []string
}

// NewCaptionPool returns the built-in pool.
func NewCaptionPool() *CaptionPool {
	return &CaptionPool{lines: defaultFlavorLines}
}

// LoadCaptionPool reads a replacement pool from a YAML file of the form:
//
//	captions:
//	  - "line one"
//	  - "line two"
func LoadCaptionPool(path string) (*CaptionPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read captions file: %w", err)
	}

	var doc struct {
		Captions []string `yaml:"captions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse captions file: %w", err)
	}
	if len(doc.Captions) == 0 {
		return nil, fmt.Errorf("captions file %s defines no captions", path)
	}
	return &CaptionPool{lines: doc.Captions}, nil
}

// Len returns the pool size.
func (p *CaptionPool) Len() int {
	return len(p.lines)
}

// Pick draws a uniformly random flavor line.
func (p *CaptionPool) Pick(rng *rand.Rand) string {
	return p.lines[rng.Intn(len(p.lines))]
}

// Compose wraps a flavor line into the full delivery caption.
func (p *CaptionPool) Compose(line string) string {
	return "Press the Play button above to listen! 🎵\n" +
		"\n" +
		"*" + line + "*\n" +
		"\n" +
		"Powered by $SQUONK tears – Learn more at squonk.meme"
}
